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
	"testing"
)

func TestCRC16(t *testing.T) {

	tests := []struct {
		data string
		want uint16
	}{
		{data: "", want: 0},
		{data: "123456789", want: 0x31c3},
		{data: "A", want: 0x58e5},
	}

	for _, tt := range tests {
		if got := CRC16([]byte(tt.data), 0); got != tt.want {
			t.Errorf("CRC16(%q) = %#04x, want %#04x", tt.data, got, tt.want)
		}
	}

	// continuing over parts equals a single pass
	if UpdateCRC16(CRC16([]byte("1234"), 0), []byte("56789")) != 0x31c3 {
		t.Error("incremental CRC differs")
	}
}
