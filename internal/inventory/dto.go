package inventory

import "time"

// Transfer structs exposed over the HTTP API and outbound events. Each lists
// exactly the fields and nested collections it exposes; the hierarchy below
// Inventory is a strict tree, so ownership edges only point downward.

type InventoryDTO struct {
	ID              string     `json:"id"`
	OriginID        *int       `json:"origin_id"`
	PropertyID      int        `json:"property_id"`
	InventoryTypeID int        `json:"inventory_type_id"`
	EventID         int        `json:"event_id"`
	Action          string     `json:"action"`
	Synced          bool       `json:"synced"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Spaces          []SpaceDTO `json:"spaces,omitempty"`
}

type SpaceDTO struct {
	ID          string       `json:"id"`
	OriginID    *int         `json:"origin_id"`
	InventoryID string       `json:"inventory_id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Action      string       `json:"action"`
	Synced      bool         `json:"synced"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Elements    []ElementDTO `json:"elements,omitempty"`
	Images      []ImageDTO   `json:"images,omitempty"`
	Videos      []VideoDTO   `json:"videos,omitempty"`
}

type ElementDTO struct {
	ID          string         `json:"id"`
	OriginID    *int           `json:"origin_id"`
	SpaceID     string         `json:"space_id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Amount      int            `json:"amount"`
	Action      string         `json:"action"`
	Synced      bool           `json:"synced"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Attributes  []AttributeDTO `json:"attributes,omitempty"`
	Images      []ImageDTO     `json:"images,omitempty"`
}

type AttributeDTO struct {
	ID        string    `json:"id"`
	ElementID string    `json:"element_id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Action    string    `json:"action"`
	Synced    bool      `json:"synced"`
	CreatedAt time.Time `json:"created_at"`
}

type ImageDTO struct {
	ID          string    `json:"id"`
	SpaceID     string    `json:"space_id"`
	ElementID   *string   `json:"element_id"`
	Path        string    `json:"path"`
	Description string    `json:"description,omitempty"`
	Action      string    `json:"action"`
	Synced      bool      `json:"synced"`
	CreatedAt   time.Time `json:"created_at"`
}

type VideoDTO struct {
	ID          string    `json:"id"`
	SpaceID     string    `json:"space_id"`
	Path        string    `json:"path"`
	Description string    `json:"description,omitempty"`
	Action      string    `json:"action"`
	Synced      bool      `json:"synced"`
	CreatedAt   time.Time `json:"created_at"`
}

func (m *Inventory) DTO() InventoryDTO {
	dto := InventoryDTO{
		ID:              m.ID,
		OriginID:        m.OriginID,
		PropertyID:      m.PropertyID,
		InventoryTypeID: m.InventoryTypeID,
		EventID:         m.EventID,
		Action:          m.Action,
		Synced:          m.Synced,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	for i := range m.Spaces {
		dto.Spaces = append(dto.Spaces, m.Spaces[i].DTO())
	}
	return dto
}

func (m *Space) DTO() SpaceDTO {
	dto := SpaceDTO{
		ID:          m.ID,
		OriginID:    m.OriginID,
		InventoryID: m.InventoryID,
		Name:        m.Name,
		Description: m.Description,
		Action:      m.Action,
		Synced:      m.Synced,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	for i := range m.Elements {
		dto.Elements = append(dto.Elements, m.Elements[i].DTO())
	}
	for i := range m.Images {
		dto.Images = append(dto.Images, m.Images[i].DTO())
	}
	for i := range m.Videos {
		dto.Videos = append(dto.Videos, m.Videos[i].DTO())
	}
	return dto
}

func (m *Element) DTO() ElementDTO {
	dto := ElementDTO{
		ID:          m.ID,
		OriginID:    m.OriginID,
		SpaceID:     m.SpaceID,
		Name:        m.Name,
		Description: m.Description,
		Amount:      m.Amount,
		Action:      m.Action,
		Synced:      m.Synced,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	for i := range m.Attributes {
		dto.Attributes = append(dto.Attributes, m.Attributes[i].DTO())
	}
	for i := range m.Images {
		dto.Images = append(dto.Images, m.Images[i].DTO())
	}
	return dto
}

func (m *Attribute) DTO() AttributeDTO {
	return AttributeDTO{
		ID:        m.ID,
		ElementID: m.ElementID,
		Key:       m.Key,
		Value:     m.Value,
		Action:    m.Action,
		Synced:    m.Synced,
		CreatedAt: m.CreatedAt,
	}
}

func (m *Image) DTO() ImageDTO {
	return ImageDTO{
		ID:          m.ID,
		SpaceID:     m.SpaceID,
		ElementID:   m.ElementID,
		Path:        m.Path,
		Description: m.Description,
		Action:      m.Action,
		Synced:      m.Synced,
		CreatedAt:   m.CreatedAt,
	}
}

func (m *Video) DTO() VideoDTO {
	return VideoDTO{
		ID:          m.ID,
		SpaceID:     m.SpaceID,
		Path:        m.Path,
		Description: m.Description,
		Action:      m.Action,
		Synced:      m.Synced,
		CreatedAt:   m.CreatedAt,
	}
}
