package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Tokyo")
	if err != nil {
		panic(err)
	}
}

// force timezone to be JST because both portals render and accept
// dates in wall-clock Tokyo time, so a host in another zone would
// shift Year()/Month()/Day() based comparisons by a day
func Now() time.Time {
	return time.Now().In(Location)
}
