package version

import (
	"fmt"
	"strconv"
	"time"
)

// Set at build time using -ldflags.
var (
	version   = "unknown"
	buildTime = "0"
)

func Version() string {
	return version
}

func BuildTime() (time.Time, error) {
	epoch, err := strconv.Atoi(buildTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse build time: %s", err)
	}
	return time.Unix(int64(epoch), 0), nil
}
