// Package inventory owns the persisted hierarchy (inventory → space →
// element → attribute, plus media rows) and the session-context pointer set
// that voice commands advance.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/inventory-voice-lab/internal/logging"
)

// Context-precondition errors. Callers match with errors.Is and convert them
// into client responses or outbound error events; they are never fatal.
var (
	ErrNoInventorySelected = errors.New("inventory: no inventory selected")
	ErrNoSpaceSelected     = errors.New("inventory: no space selected")
	ErrNoElementSelected   = errors.New("inventory: no element selected")
	ErrNotFound            = errors.New("inventory: not found")
)

// Open opens the SQLite store at path and migrates the schema.
func Open(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := db.AutoMigrate(
		&Inventory{}, &Space{}, &Element{}, &Attribute{},
		&Image{}, &Video{}, &SessionContext{},
	); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return db, nil
}

// Service combines the hierarchy CRUD with the current-location pointer set.
// Every pointer mutation is persisted inside the same transaction as the row
// it points at, so a restart resumes at the last committed location.
type Service struct {
	db       *gorm.DB
	videoDir string

	mu                 sync.Mutex
	currentInventoryID *string
	currentSpaceID     *string
	currentElementID   *string
}

func NewService(db *gorm.DB, videoDir string) (*Service, error) {
	s := &Service{db: db, videoDir: videoDir}
	if err := s.loadContext(); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns a snapshot of the pointer set. Nil means unset.
func (s *Service) Current() (inventoryID, spaceID, elementID *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentInventoryID, s.currentSpaceID, s.currentElementID
}

// EnterInventory looks up the inventory by its natural key, creating it if
// absent, resets the space and element pointers, and persists the new
// pointer set.
func (s *Service) EnterInventory(ctx context.Context, propertyID, inventoryTypeID, eventID int) (*Inventory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var inv Inventory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where(&Inventory{
			PropertyID:      propertyID,
			InventoryTypeID: inventoryTypeID,
			EventID:         eventID,
		}).First(&inv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			inv = Inventory{
				PropertyID:      propertyID,
				InventoryTypeID: inventoryTypeID,
				EventID:         eventID,
				Action:          ActionCreate,
			}
			if err := tx.Create(&inv).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		return s.saveContext(tx, &inv.ID, nil, nil)
	})
	if err != nil {
		return nil, err
	}
	s.currentInventoryID = &inv.ID
	s.currentSpaceID = nil
	s.currentElementID = nil
	logging.Infow("entered inventory", "inventory_id", inv.ID, "property_id", propertyID)
	return &inv, nil
}

// EnterSpace looks up the space by (inventory, name), creating it if absent,
// resets the element pointer, and persists the pointer set.
func (s *Service) EnterSpace(ctx context.Context, name, description string) (*Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentInventoryID == nil {
		return nil, ErrNoInventorySelected
	}

	var space Space
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("inventory_id = ? AND name = ?", *s.currentInventoryID, name).First(&space).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			space = Space{
				InventoryID: *s.currentInventoryID,
				Name:        name,
				Description: description,
				Action:      ActionCreate,
			}
			if err := tx.Create(&space).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		return s.saveContext(tx, s.currentInventoryID, &space.ID, nil)
	})
	if err != nil {
		return nil, err
	}
	s.currentSpaceID = &space.ID
	s.currentElementID = nil
	logging.Infow("entered space", "space_id", space.ID, "name", space.Name)
	return &space, nil
}

// EnterElement looks up the element by (space, name), creating it if absent,
// and persists the pointer set.
func (s *Service) EnterElement(ctx context.Context, name, description string, amount int) (*Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentSpaceID == nil {
		return nil, ErrNoSpaceSelected
	}
	if amount <= 0 {
		amount = 1
	}

	var elem Element
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("space_id = ? AND name = ?", *s.currentSpaceID, name).First(&elem).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			elem = Element{
				SpaceID:     *s.currentSpaceID,
				Name:        name,
				Description: description,
				Amount:      amount,
				Action:      ActionCreate,
			}
			if err := tx.Create(&elem).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		return s.saveContext(tx, s.currentInventoryID, s.currentSpaceID, &elem.ID)
	})
	if err != nil {
		return nil, err
	}
	s.currentElementID = &elem.ID
	logging.Infow("entered element", "element_id", elem.ID, "name", elem.Name)
	return &elem, nil
}

// EnterAttribute inserts a new attribute row for the current element.
// Attributes accumulate; there is no dedup.
func (s *Service) EnterAttribute(ctx context.Context, key, value string) (*Attribute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentElementID == nil {
		return nil, ErrNoElementSelected
	}

	attr := Attribute{
		ElementID: *s.currentElementID,
		Key:       key,
		Value:     value,
		Action:    ActionCreate,
	}
	if err := s.db.WithContext(ctx).Create(&attr).Error; err != nil {
		return nil, err
	}
	logging.Infow("attribute recorded", "element_id", attr.ElementID, "key", key, "value", value)
	return &attr, nil
}

// SaveImage records an image row referencing the current space and element.
func (s *Service) SaveImage(ctx context.Context, path, description string) (*Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentSpaceID == nil {
		return nil, ErrNoSpaceSelected
	}
	if s.currentElementID == nil {
		return nil, ErrNoElementSelected
	}

	img := Image{
		SpaceID:     *s.currentSpaceID,
		ElementID:   s.currentElementID,
		Path:        path,
		Description: description,
		Action:      ActionCreate,
	}
	if err := s.db.WithContext(ctx).Create(&img).Error; err != nil {
		return nil, err
	}
	return &img, nil
}

// SaveVideoBytes writes the payload into the current space's video directory
// and records a video row pointing at it.
func (s *Service) SaveVideoBytes(ctx context.Context, data []byte, description string) (*Video, error) {
	return s.saveVideo(ctx, description, func(dst string) error {
		return os.WriteFile(dst, data, 0o644)
	})
}

// SaveVideoFile moves an existing file into the current space's video
// directory and records a video row pointing at it.
func (s *Service) SaveVideoFile(ctx context.Context, srcPath, description string) (*Video, error) {
	return s.saveVideo(ctx, description, func(dst string) error {
		if err := os.Rename(srcPath, dst); err == nil {
			return nil
		}
		// Cross-device moves fall back to copy+remove.
		in, err := os.Open(srcPath)
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := os.Create(dst)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, in); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		return os.Remove(srcPath)
	})
}

func (s *Service) saveVideo(ctx context.Context, description string, write func(dst string) error) (*Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentSpaceID == nil {
		return nil, ErrNoSpaceSelected
	}

	dir := filepath.Join(s.videoDir, fmt.Sprintf("space_%s", *s.currentSpaceID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, fmt.Sprintf("video_%s.mp4", time.Now().Format("20060102_150405.000000")))
	if err := write(path); err != nil {
		return nil, err
	}

	video := Video{
		SpaceID:     *s.currentSpaceID,
		Path:        path,
		Description: description,
		Action:      ActionCreate,
	}
	if err := s.db.WithContext(ctx).Create(&video).Error; err != nil {
		return nil, err
	}
	logging.Infow("video recorded", "space_id", video.SpaceID, "path", path)
	return &video, nil
}

// PendingSync holds, per entity kind, every row not yet acknowledged by the
// remote store.
type PendingSync struct {
	Inventories []Inventory `json:"inventories"`
	Spaces      []Space     `json:"spaces"`
	Elements    []Element   `json:"elements"`
	Attributes  []Attribute `json:"attributes"`
	Images      []Image     `json:"images"`
	Videos      []Video     `json:"videos"`
}

// GetPendingSync returns all unsynced rows grouped by kind.
func (s *Service) GetPendingSync(ctx context.Context) (*PendingSync, error) {
	var p PendingSync
	db := s.db.WithContext(ctx)
	if err := db.Where("synced = ?", false).Find(&p.Inventories).Error; err != nil {
		return nil, err
	}
	if err := db.Where("synced = ?", false).Find(&p.Spaces).Error; err != nil {
		return nil, err
	}
	if err := db.Where("synced = ?", false).Find(&p.Elements).Error; err != nil {
		return nil, err
	}
	if err := db.Where("synced = ?", false).Find(&p.Attributes).Error; err != nil {
		return nil, err
	}
	if err := db.Where("synced = ?", false).Find(&p.Images).Error; err != nil {
		return nil, err
	}
	if err := db.Where("synced = ?", false).Find(&p.Videos).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkSynced bulk-sets synced on the given rows of one entity kind. It is a
// batch update; rows are not loaded.
func (s *Service) MarkSynced(ctx context.Context, kind string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	var model interface{}
	switch kind {
	case "inventories":
		model = &Inventory{}
	case "spaces":
		model = &Space{}
	case "elements":
		model = &Element{}
	case "attributes":
		model = &Attribute{}
	case "images":
		model = &Image{}
	case "videos":
		model = &Video{}
	default:
		return fmt.Errorf("inventory: unknown entity kind %q", kind)
	}
	return s.db.WithContext(ctx).Model(model).
		Where("id IN ?", ids).
		Update("synced", true).Error
}

// saveContext writes the given pointer set into the single persisted context
// row. Must run inside the caller's transaction; the caller updates the
// in-memory pointers only after the transaction commits, so a rollback leaves
// both sides on the last committed location.
func (s *Service) saveContext(tx *gorm.DB, inventoryID, spaceID, elementID *string) error {
	var ctx SessionContext
	err := tx.First(&ctx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx = SessionContext{}
	} else if err != nil {
		return err
	}
	ctx.CurrentInventoryID = inventoryID
	ctx.CurrentSpaceID = spaceID
	ctx.CurrentElementID = elementID
	return tx.Save(&ctx).Error
}

// loadContext restores the pointer set from the persisted context row, or
// resets everything to unset when none exists.
func (s *Service) loadContext() error {
	var ctx SessionContext
	err := s.db.First(&ctx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.currentInventoryID = nil
		s.currentSpaceID = nil
		s.currentElementID = nil
		return nil
	}
	if err != nil {
		return err
	}
	s.currentInventoryID = ctx.CurrentInventoryID
	s.currentSpaceID = ctx.CurrentSpaceID
	s.currentElementID = ctx.CurrentElementID
	logging.Infow("session context restored",
		logging.ContextFields(deref(ctx.CurrentInventoryID), deref(ctx.CurrentSpaceID), deref(ctx.CurrentElementID))...)
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
