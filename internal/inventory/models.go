package inventory

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sync action tags. A locally created row starts unsynced with a pending
// action until the remote store acknowledges it.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

type Inventory struct {
	ID              string `gorm:"type:uuid;primaryKey"`
	OriginID        *int
	PropertyID      int    `gorm:"not null;index"`
	InventoryTypeID int    `gorm:"not null"`
	EventID         int    `gorm:"not null"`
	Action          string `gorm:"default:create"`
	Synced          bool   `gorm:"default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Spaces []Space `gorm:"foreignKey:InventoryID;constraint:OnDelete:CASCADE"`
}

func (Inventory) TableName() string { return "inventories" }

func (m *Inventory) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

type Space struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	OriginID    *int
	InventoryID string `gorm:"type:uuid;not null;index"`
	Name        string `gorm:"not null"`
	Description string
	Action      string `gorm:"default:create"`
	Synced      bool   `gorm:"default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Elements []Element `gorm:"foreignKey:SpaceID;constraint:OnDelete:CASCADE"`
	Images   []Image   `gorm:"foreignKey:SpaceID;constraint:OnDelete:CASCADE"`
	Videos   []Video   `gorm:"foreignKey:SpaceID;constraint:OnDelete:CASCADE"`
}

func (Space) TableName() string { return "spaces" }

func (m *Space) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

type Element struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	OriginID    *int
	SpaceID     string `gorm:"type:uuid;not null;index"`
	Name        string `gorm:"not null"`
	Description string
	Amount      int    `gorm:"default:1"`
	Action      string `gorm:"default:create"`
	Synced      bool   `gorm:"default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Attributes []Attribute `gorm:"foreignKey:ElementID;constraint:OnDelete:CASCADE"`
	Images     []Image     `gorm:"foreignKey:ElementID;constraint:OnDelete:CASCADE"`
}

func (Element) TableName() string { return "elements" }

func (m *Element) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

type Attribute struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	OriginID  *int
	ElementID string `gorm:"type:uuid;not null;index"`
	Key       string `gorm:"not null"`
	Value     string `gorm:"not null"`
	Action    string `gorm:"default:create"`
	Synced    bool   `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Attribute) TableName() string { return "attributes" }

func (m *Attribute) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

type Image struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	OriginID    *int
	SpaceID     string  `gorm:"type:uuid;not null;index"`
	ElementID   *string `gorm:"type:uuid;index"`
	Path        string
	PathSynced  string
	Description string
	Action      string `gorm:"default:create"`
	Synced      bool   `gorm:"default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Image) TableName() string { return "images" }

func (m *Image) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

type Video struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	OriginID    *int
	SpaceID     string `gorm:"type:uuid;not null;index"`
	Path        string `gorm:"not null"`
	PathSynced  string
	Description string
	Action      string `gorm:"default:create"`
	Synced      bool   `gorm:"default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Video) TableName() string { return "videos" }

func (m *Video) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// SessionContext is the single persisted "where was I" row. It mirrors the
// in-memory pointers after every mutation so a restart resumes at the last
// committed location.
type SessionContext struct {
	ID                 uint `gorm:"primaryKey"`
	CurrentInventoryID *string
	CurrentSpaceID     *string
	CurrentElementID   *string
	UpdatedAt          time.Time
}

func (SessionContext) TableName() string { return "session_contexts" }
