/*
   hfsctl - tools for working with Macintosh HFS volumes
   Copyright (c) 2022, The hfsctl Authors

   This file is part of hfsctl.

   hfsctl is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   hfsctl is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with hfsctl. If not, see <http://www.gnu.org/licenses/>.
*/

package util

import (
	"time"
)

// macEpochOffset is the number of seconds between the Macintosh epoch, 1904-01-01,
// and the Unix epoch.
const macEpochOffset = 2082844800

// ToMacTime converts t into seconds since the Macintosh epoch. Times before
// the epoch, including the zero time, yield 0.
func ToMacTime(t time.Time) uint32 {
	if t.IsZero() {
		return 0
	}
	s := t.Unix() + macEpochOffset
	if s < 0 {
		return 0
	}
	if s > 0xffffffff {
		return 0xffffffff
	}
	return uint32(s)
}

// FromMacTime converts seconds since the Macintosh epoch into a time. Dates
// are taken as UTC. 0 yields the zero time.
func FromMacTime(s uint32) time.Time {
	if s == 0 {
		return time.Time{}
	}
	return time.Unix(int64(s)-macEpochOffset, 0).UTC()
}
