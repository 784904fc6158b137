package models

// UserPatch carries the updatable user fields. Nil pointers mean "leave
// unchanged".
type UserPatch struct {
	Name          *string
	Email         *string
	Birthday      *string
	Timezone      *string
	EmailVerified *bool
}
