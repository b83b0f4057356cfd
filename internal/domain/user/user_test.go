package user

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"user-service/internal/rbac"
)

func TestAttributesFor(t *testing.T) {
	attrs := AttributesFor([]rbac.Field{rbac.FieldEmail, rbac.FieldGroups, rbac.FieldActive, rbac.FieldEmail, rbac.FieldFullName})
	assert.Equal(t, []string{AttrEmail, AttrName}, attrs)
	assert.Nil(t, AttributesFor([]rbac.Field{rbac.FieldActive}))
}

func TestNeedsGroups(t *testing.T) {
	assert.True(t, NeedsGroups([]rbac.Field{rbac.FieldEmail, rbac.FieldGroups}))
	assert.False(t, NeedsGroups(rbac.DefaultFields))
}

func TestProject(t *testing.T) {
	u := User{
		Username: "bob@example.com",
		Attributes: map[string]string{
			AttrName:        "Bob Builder",
			AttrEmail:       "bob@example.com",
			AttrPhoneNumber: "+385911234567",
		},
		Enabled: true,
	}

	got := Project(u, []rbac.Field{rbac.FieldFullName, rbac.FieldPhoneNumber, rbac.FieldActive, rbac.FieldGroups, rbac.FieldPicture})

	assert.Equal(t, map[string]any{
		"full_name":    "Bob Builder",
		"phone_number": "+385911234567",
		"active":       true,
		"groups":       []string{},
		"picture":      "",
	}, got)
}

func TestProjectOnlyRequestedFields(t *testing.T) {
	u := User{Attributes: map[string]string{AttrEmail: "a@b.c", AttrPhoneNumber: "+1"}}

	got := Project(u, []rbac.Field{rbac.FieldEmail})

	assert.Len(t, got, 1)
	assert.NotContains(t, got, "phone_number")
}
