package redis

import "fmt"

// usersKey returns the key of the HASH username -> JSON user record
func usersKey(prefix string) string {
	return fmt.Sprintf("%s:auth:users", prefix)
}

// settingsKey returns the key holding the JSON auth settings
func settingsKey(prefix string) string {
	return fmt.Sprintf("%s:auth:config", prefix)
}
