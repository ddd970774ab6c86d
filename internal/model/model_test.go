package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole("admin")
	require.NoError(t, err)
	assert.True(t, r.IsAdmin())

	r, err = ParseRole(" user ")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, r)

	_, err = ParseRole("root")
	assert.Error(t, err)
}

func TestUser_UnmarshalRejectsUnknownRole(t *testing.T) {
	var u User
	err := json.Unmarshal([]byte(`{"id":1,"email":"a@b.c","full_name":"A B","role":"superuser"}`), &u)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"id":1,"email":"a@b.c","full_name":"A B","role":"admin","password_hash":"x"}`), &u)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, u.Role)
	assert.Empty(t, u.PasswordHash)
}

func TestUser_Initials(t *testing.T) {
	assert.Equal(t, "АП", User{FullName: "Александр Петров"}.Initials())
	assert.Equal(t, "JD", User{FullName: "john  doe"}.Initials())
	assert.Equal(t, "", User{}.Initials())
}

func TestSettings_Field(t *testing.T) {
	s := DefaultSettings()
	for _, name := range SettingNames {
		assert.NotNil(t, s.Field(name), name)
	}
	assert.Nil(t, s.Field("dark_mode"))

	*s.Field(SettingSMSNotifications) = true
	assert.True(t, s.SMSNotifications)
}

func TestProfile_Field(t *testing.T) {
	var p Profile
	*p.Field(ProfilePhone) = "+7 (999) 123-45-67"
	assert.Equal(t, "+7 (999) 123-45-67", p.Phone)
	assert.Nil(t, p.Field("avatar"))
}
