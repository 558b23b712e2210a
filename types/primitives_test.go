// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 */

package types

import "testing"

func TestShortChannelIdPackUnpack(t *testing.T) {
	s := ShortChannelId{BlockHeight: 0x123456, TxIndex: 0xabcdef, OutputIndex: 0x7788}
	u := s.ToU64()
	back := ShortChannelIdFromU64(u)
	if back != s {
		t.Errorf("round trip = %+v, want %+v", back, s)
	}
}

func TestShortChannelIdTruncatesOverflowBits(t *testing.T) {
	s := ShortChannelId{BlockHeight: 0xffffffff, TxIndex: 0xffffffff, OutputIndex: 0x1234}
	back := ShortChannelIdFromU64(s.ToU64())
	if back.BlockHeight != 0xffffff || back.TxIndex != 0xffffff {
		t.Errorf("ToU64 did not mask to 24 bits: %+v", back)
	}
}

func TestChannelIdIsZero(t *testing.T) {
	var zero ChannelId
	if !zero.IsZero() {
		t.Errorf("IsZero(zero value) = false, want true")
	}

	nonZero := ChannelId{0x01}
	if nonZero.IsZero() {
		t.Errorf("IsZero(non-zero) = true, want false")
	}
}

func TestMilliSatoshiToSatoshi(t *testing.T) {
	cases := []struct {
		m    MilliSatoshi
		want Satoshi
	}{
		{0, 0},
		{999, 0},
		{1000, 1},
		{1999, 1},
		{2000, 2},
	}
	for _, tc := range cases {
		if got := tc.m.ToSatoshi(); got != tc.want {
			t.Errorf("MilliSatoshi(%d).ToSatoshi() = %d, want %d", tc.m, got, tc.want)
		}
	}
}
