package audience

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/ignite/listmonk-bridge/internal/listmonk"
	"github.com/stretchr/testify/assert"
)

func TestResolveUUIDsAll(t *testing.T) {
	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()
	platform := &fakePlatform{
		lists: map[int]*listmonk.List{
			1: {ID: 1, UUID: u1},
			2: {ID: 2, UUID: u2},
			3: {ID: 3, UUID: u3},
		},
	}
	r := NewResolver(platform, testLogger())

	uuids := r.ResolveUUIDs(context.Background(), []int{1, 2, 3})
	assert.ElementsMatch(t, []uuid.UUID{u1, u2, u3}, uuids)
}

func TestResolveUUIDsPartial(t *testing.T) {
	u1 := uuid.New()
	platform := &fakePlatform{
		lists: map[int]*listmonk.List{1: {ID: 1, UUID: u1}},
	}
	r := NewResolver(platform, testLogger())

	uuids := r.ResolveUUIDs(context.Background(), []int{1, 99})
	assert.Equal(t, []uuid.UUID{u1}, uuids)
}

func TestResolveUUIDsEmpty(t *testing.T) {
	r := NewResolver(&fakePlatform{}, testLogger())
	assert.Nil(t, r.ResolveUUIDs(context.Background(), nil))
}

func TestLinkSkipsEmptySet(t *testing.T) {
	platform := &fakePlatform{}
	r := NewResolver(platform, testLogger())

	r.Link(context.Background(), "user@example.com", nil)
	assert.Empty(t, platform.linkedUUIDs, "no public subscription call without UUIDs")
}
