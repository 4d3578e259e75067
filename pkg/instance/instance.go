package instance

import "os"

// GetID names this process in logs: DYNO when running on a dyno, then
// HOSTNAME, otherwise "local".
func GetID() string {
	for _, key := range []string{"DYNO", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
