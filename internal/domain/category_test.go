package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategory_ChildPath(t *testing.T) {
	root := &Category{Auditable: Auditable{ID: "cat-a"}, Path: "/"}
	assert.True(t, root.IsRoot())
	assert.Equal(t, "/cat-a/", root.ChildPath())

	child := &Category{Auditable: Auditable{ID: "cat-b"}, ParentID: "cat-a", Path: root.ChildPath()}
	assert.False(t, child.IsRoot())
	assert.Equal(t, "/cat-a/cat-b/", child.ChildPath())
}

func TestCategoryType_Capabilities(t *testing.T) {
	assert.True(t, TypeSubject.CanBeRoot())
	assert.False(t, TypeChapter.CanBeRoot())
	assert.False(t, TypeTopic.CanBeRoot())

	assert.True(t, TypeSubject.CanContain(TypeSubject), "subjects nest for arbitrary depth")
	assert.True(t, TypeSubject.CanContain(TypeChapter))
	assert.False(t, TypeSubject.CanContain(TypeTopic))

	assert.True(t, TypeChapter.CanContain(TypeChapter))
	assert.True(t, TypeChapter.CanContain(TypeTopic))
	assert.False(t, TypeChapter.CanContain(TypeSubject))

	assert.False(t, TypeTopic.CanHaveChildren())
	assert.True(t, TypeSubject.CanHaveChildren())
}

func TestCategoryType_Valid(t *testing.T) {
	for _, ct := range CategoryTypes() {
		assert.True(t, ct.Valid(), string(ct))
	}
	assert.False(t, CategoryType("module").Valid())
	assert.False(t, CategoryType("").Valid())
}

func TestAuditable_SoftDelete(t *testing.T) {
	var a Auditable
	a.InitTimestamps()
	assert.False(t, a.IsDeleted())
	assert.Equal(t, a.CreatedAt, a.UpdatedAt)

	a.MarkDeleted()
	assert.True(t, a.IsDeleted())
	assert.False(t, a.UpdatedAt.Before(a.CreatedAt))
}
