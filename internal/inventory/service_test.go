package inventory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testService(t *testing.T) (*Service, *gorm.DB, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "inventory.db"))
	require.NoError(t, err)
	svc, err := NewService(db, filepath.Join(dir, "videos"))
	require.NoError(t, err)
	return svc, db, dir
}

// TestEnterHierarchyInOrder walks inventory, space, element, attribute and
// checks each pointer advances.
func TestEnterHierarchyInOrder(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	inv, err := svc.EnterInventory(ctx, 1, 2, 3)
	require.NoError(t, err)
	require.NotEmpty(t, inv.ID)
	assert.Equal(t, ActionCreate, inv.Action)
	assert.False(t, inv.Synced)

	space, err := svc.EnterSpace(ctx, "Cocina", "")
	require.NoError(t, err)
	assert.Equal(t, inv.ID, space.InventoryID)

	elem, err := svc.EnterElement(ctx, "Refrigerador", "", 1)
	require.NoError(t, err)
	assert.Equal(t, space.ID, elem.SpaceID)

	attr, err := svc.EnterAttribute(ctx, "color", "Rojo")
	require.NoError(t, err)
	assert.Equal(t, elem.ID, attr.ElementID)

	invID, spaceID, elemID := svc.Current()
	require.NotNil(t, invID)
	require.NotNil(t, spaceID)
	require.NotNil(t, elemID)
	assert.Equal(t, inv.ID, *invID)
	assert.Equal(t, space.ID, *spaceID)
	assert.Equal(t, elem.ID, *elemID)
}

// TestEnterOutOfOrderFails verifies context preconditions: no space without
// an inventory, no element without a space, no attribute without an element.
func TestEnterOutOfOrderFails(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	_, err := svc.EnterSpace(ctx, "Cocina", "")
	assert.ErrorIs(t, err, ErrNoInventorySelected)

	_, err = svc.EnterElement(ctx, "Mesa", "", 1)
	assert.ErrorIs(t, err, ErrNoSpaceSelected)

	_, err = svc.EnterAttribute(ctx, "color", "Rojo")
	assert.ErrorIs(t, err, ErrNoElementSelected)

	_, err = svc.SaveImage(ctx, "a.jpg", "")
	assert.ErrorIs(t, err, ErrNoSpaceSelected)
}

// TestEnterSpaceIsIdempotent verifies re-entering a space by name returns
// the same row instead of creating a duplicate.
func TestEnterSpaceIsIdempotent(t *testing.T) {
	svc, db, _ := testService(t)
	ctx := context.Background()

	_, err := svc.EnterInventory(ctx, 1, 1, 1)
	require.NoError(t, err)

	first, err := svc.EnterSpace(ctx, "Cocina", "")
	require.NoError(t, err)
	second, err := svc.EnterSpace(ctx, "Cocina", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&Space{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

// TestEnterInventoryResetsPointers verifies switching inventories clears the
// space and element pointers.
func TestEnterInventoryResetsPointers(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	_, err := svc.EnterInventory(ctx, 1, 1, 1)
	require.NoError(t, err)
	_, err = svc.EnterSpace(ctx, "Cocina", "")
	require.NoError(t, err)
	_, err = svc.EnterElement(ctx, "Mesa", "", 1)
	require.NoError(t, err)

	_, err = svc.EnterInventory(ctx, 2, 2, 2)
	require.NoError(t, err)

	_, spaceID, elemID := svc.Current()
	assert.Nil(t, spaceID)
	assert.Nil(t, elemID)
}

// TestRollbackLeavesPointersUntouched verifies a failed transaction neither
// advances the in-memory pointers nor the persisted context row.
func TestRollbackLeavesPointersUntouched(t *testing.T) {
	svc, db, _ := testService(t)
	ctx := context.Background()

	inv, err := svc.EnterInventory(ctx, 1, 1, 1)
	require.NoError(t, err)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = svc.EnterSpace(canceled, "Cocina", "")
	require.Error(t, err)

	invID, spaceID, elemID := svc.Current()
	require.NotNil(t, invID)
	assert.Equal(t, inv.ID, *invID)
	assert.Nil(t, spaceID)
	assert.Nil(t, elemID)

	svc2, err := NewService(db, t.TempDir())
	require.NoError(t, err)
	invID, spaceID, _ = svc2.Current()
	require.NotNil(t, invID)
	assert.Equal(t, inv.ID, *invID)
	assert.Nil(t, spaceID)
}

// TestAttributesAccumulate verifies repeated attribute commands insert new
// rows rather than overwriting.
func TestAttributesAccumulate(t *testing.T) {
	svc, db, _ := testService(t)
	ctx := context.Background()

	_, err := svc.EnterInventory(ctx, 1, 1, 1)
	require.NoError(t, err)
	_, err = svc.EnterSpace(ctx, "Cocina", "")
	require.NoError(t, err)
	_, err = svc.EnterElement(ctx, "Mesa", "", 1)
	require.NoError(t, err)

	_, err = svc.EnterAttribute(ctx, "color", "Rojo")
	require.NoError(t, err)
	_, err = svc.EnterAttribute(ctx, "color", "Azul")
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&Attribute{}).Where("key = ?", "color").Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

// TestContextSurvivesRestart verifies a fresh Service over the same store
// resumes at the persisted location.
func TestContextSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inventory.db")

	db, err := Open(path)
	require.NoError(t, err)
	svc, err := NewService(db, dir)
	require.NoError(t, err)

	ctx := context.Background()
	inv, err := svc.EnterInventory(ctx, 1, 1, 1)
	require.NoError(t, err)
	space, err := svc.EnterSpace(ctx, "Cocina", "")
	require.NoError(t, err)

	db2, err := Open(path)
	require.NoError(t, err)
	svc2, err := NewService(db2, dir)
	require.NoError(t, err)

	invID, spaceID, elemID := svc2.Current()
	require.NotNil(t, invID)
	require.NotNil(t, spaceID)
	assert.Equal(t, inv.ID, *invID)
	assert.Equal(t, space.ID, *spaceID)
	assert.Nil(t, elemID)
}

// TestPendingSyncAndMark verifies unsynced rows are reported and batch
// acknowledgement clears them.
func TestPendingSyncAndMark(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	_, err := svc.EnterInventory(ctx, 1, 1, 1)
	require.NoError(t, err)
	space, err := svc.EnterSpace(ctx, "Cocina", "")
	require.NoError(t, err)
	elem, err := svc.EnterElement(ctx, "Mesa", "", 1)
	require.NoError(t, err)

	pending, err := svc.GetPendingSync(ctx)
	require.NoError(t, err)
	assert.Len(t, pending.Inventories, 1)
	assert.Len(t, pending.Spaces, 1)
	assert.Len(t, pending.Elements, 1)

	require.NoError(t, svc.MarkSynced(ctx, "spaces", []string{space.ID}))
	require.NoError(t, svc.MarkSynced(ctx, "elements", []string{elem.ID}))

	pending, err = svc.GetPendingSync(ctx)
	require.NoError(t, err)
	assert.Len(t, pending.Inventories, 1)
	assert.Empty(t, pending.Spaces)
	assert.Empty(t, pending.Elements)
}

// TestMarkSyncedUnknownKind verifies unknown kinds are rejected.
func TestMarkSyncedUnknownKind(t *testing.T) {
	svc, _, _ := testService(t)
	err := svc.MarkSynced(context.Background(), "gadgets", []string{"x"})
	assert.Error(t, err)
}

// TestSaveVideoBytes verifies the payload lands in the current space's
// directory and the row points at it.
func TestSaveVideoBytes(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	_, err := svc.EnterInventory(ctx, 1, 1, 1)
	require.NoError(t, err)
	space, err := svc.EnterSpace(ctx, "Cocina", "")
	require.NoError(t, err)

	video, err := svc.SaveVideoBytes(ctx, []byte("not really mp4"), "walkthrough")
	require.NoError(t, err)
	assert.Equal(t, space.ID, video.SpaceID)

	data, err := os.ReadFile(video.Path)
	require.NoError(t, err)
	assert.Equal(t, "not really mp4", string(data))
}

// TestGetInventoryNotFound verifies lookups of unknown ids map to
// ErrNotFound.
func TestGetInventoryNotFound(t *testing.T) {
	svc, _, _ := testService(t)
	_, err := svc.GetInventory(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
