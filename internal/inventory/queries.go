package inventory

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// GetInventories loads every inventory with its full hierarchy.
func (s *Service) GetInventories(ctx context.Context) ([]Inventory, error) {
	var invs []Inventory
	err := s.db.WithContext(ctx).
		Preload("Spaces.Elements.Attributes").
		Preload("Spaces.Elements.Images").
		Preload("Spaces.Images").
		Preload("Spaces.Videos").
		Find(&invs).Error
	return invs, err
}

// GetInventory loads one inventory with its full hierarchy.
func (s *Service) GetInventory(ctx context.Context, id string) (*Inventory, error) {
	var inv Inventory
	err := s.db.WithContext(ctx).
		Preload("Spaces.Elements.Attributes").
		Preload("Spaces.Elements.Images").
		Preload("Spaces.Images").
		Preload("Spaces.Videos").
		First(&inv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetSpaces lists the spaces of the given inventory, defaulting to the
// current one.
func (s *Service) GetSpaces(ctx context.Context, inventoryID string) ([]Space, error) {
	if inventoryID == "" {
		cur, _, _ := s.Current()
		if cur == nil {
			return nil, ErrNoInventorySelected
		}
		inventoryID = *cur
	}
	var spaces []Space
	err := s.db.WithContext(ctx).Where("inventory_id = ?", inventoryID).Find(&spaces).Error
	return spaces, err
}

// GetElements lists the elements of the given space, defaulting to the
// current one.
func (s *Service) GetElements(ctx context.Context, spaceID string) ([]Element, error) {
	if spaceID == "" {
		_, cur, _ := s.Current()
		if cur == nil {
			return nil, ErrNoSpaceSelected
		}
		spaceID = *cur
	}
	var elems []Element
	err := s.db.WithContext(ctx).Where("space_id = ?", spaceID).Find(&elems).Error
	return elems, err
}

// GetAttributes lists the attributes of the given element, defaulting to the
// current one.
func (s *Service) GetAttributes(ctx context.Context, elementID string) ([]Attribute, error) {
	if elementID == "" {
		_, _, cur := s.Current()
		if cur == nil {
			return nil, ErrNoElementSelected
		}
		elementID = *cur
	}
	var attrs []Attribute
	err := s.db.WithContext(ctx).Where("element_id = ?", elementID).Find(&attrs).Error
	return attrs, err
}

// GetImages lists the images of the given element, defaulting to the current
// one.
func (s *Service) GetImages(ctx context.Context, elementID string) ([]Image, error) {
	if elementID == "" {
		_, _, cur := s.Current()
		if cur == nil {
			return nil, ErrNoElementSelected
		}
		elementID = *cur
	}
	var imgs []Image
	err := s.db.WithContext(ctx).Where("element_id = ?", elementID).Find(&imgs).Error
	return imgs, err
}

// GetVideos lists the videos of the given space, defaulting to the current
// one.
func (s *Service) GetVideos(ctx context.Context, spaceID string) ([]Video, error) {
	if spaceID == "" {
		_, cur, _ := s.Current()
		if cur == nil {
			return nil, ErrNoSpaceSelected
		}
		spaceID = *cur
	}
	var videos []Video
	err := s.db.WithContext(ctx).Where("space_id = ?", spaceID).Find(&videos).Error
	return videos, err
}
