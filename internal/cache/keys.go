package cache

import (
	"fmt"
	"strconv"
	"time"
)

const (
	channelResolvePattern = "channels:resolve:*"

	// ChannelTTL bounds how stale a cached channel lookup can get.
	ChannelTTL = 10 * time.Minute
)

// ChannelResolveKey is the cache key of a (country, region) lookup.
func ChannelResolveKey(countryID uint, regionID *uint) string {
	region := "none"
	if regionID != nil {
		region = strconv.FormatUint(uint64(*regionID), 10)
	}
	return fmt.Sprintf("channels:resolve:%d:%s", countryID, region)
}
