package models

import "testing"

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"Donor", RoleDonor, true},
		{"ngo", RoleNGO, true},
		{" volunteer ", RoleVolunteer, true},
		{"Doner", "", false},
		{"Admin", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseRole(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseRole(%q) = %q,%v; want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestDonationStatusTransitions(t *testing.T) {
	if !DonationStatusPending.CanTransitionTo(DonationStatusAccepted) {
		t.Fatal("pending -> accepted should be allowed")
	}
	if !DonationStatusAccepted.CanTransitionTo(DonationStatusCompleted) {
		t.Fatal("accepted -> completed should be allowed")
	}
	forbidden := [][2]DonationStatus{
		{DonationStatusAccepted, DonationStatusPending},
		{DonationStatusCompleted, DonationStatusAccepted},
		{DonationStatusCompleted, DonationStatusPending},
		{DonationStatusPending, DonationStatusCompleted},
	}
	for _, f := range forbidden {
		if f[0].CanTransitionTo(f[1]) {
			t.Errorf("%s -> %s should not be allowed", f[0], f[1])
		}
	}
	if _, ok := DonationStatusCompleted.Next(); ok {
		t.Fatal("completed must be terminal")
	}
	if !DonationStatusCompleted.IsAfter(DonationStatusAccepted) || DonationStatusPending.IsAfter(DonationStatusAccepted) {
		t.Fatal("IsAfter ordering is wrong")
	}
}

func TestParseItemType(t *testing.T) {
	cases := map[string]ItemType{
		"Medicine": ItemTypeMedicine,
		"meds":     ItemTypeMedicine,
		"books":    ItemTypeBooks,
		"CLOTHES":  ItemTypeClothes,
		"Food":     ItemTypeFood,
	}
	for in, want := range cases {
		got, ok := ParseItemType(in)
		if !ok || got != want {
			t.Errorf("ParseItemType(%q) = %q,%v; want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseItemType("Toys"); ok {
		t.Error("unknown item type should not parse")
	}
}

func TestItemCountsAccumulateAndPrimaryType(t *testing.T) {
	var c ItemCounts
	c.Add(ItemTypeFood, 2)
	c.Add(ItemTypeFood, 3)
	c.Add(ItemTypeBooks, 1)
	if c.Food != 5 || c.Books != 1 || c.Total() != 6 {
		t.Fatalf("unexpected counts %+v", c)
	}
	if got := c.PrimaryType(); got != "Food" {
		t.Fatalf("PrimaryType = %q, want Food", got)
	}
	if got := (ItemCounts{}).PrimaryType(); got != "Mixed" {
		t.Fatalf("empty PrimaryType = %q, want Mixed", got)
	}
}

func TestTransitionAllows(t *testing.T) {
	cases := []struct {
		name    string
		tr      Transition
		current DonationStatus
		want    bool
	}{
		{"forward step", Transition{From: []DonationStatus{DonationStatusPending}, To: DonationStatusAccepted}, DonationStatusPending, true},
		{"other status", Transition{From: []DonationStatus{DonationStatusPending}, To: DonationStatusAccepted}, DonationStatusAccepted, false},
		{"rewrite of target", Transition{From: []DonationStatus{DonationStatusPending, DonationStatusAccepted}, To: DonationStatusAccepted}, DonationStatusAccepted, true},
		{"backwards listed in From", Transition{From: []DonationStatus{DonationStatusCompleted}, To: DonationStatusAccepted}, DonationStatusCompleted, false},
		{"skipping a step", Transition{From: []DonationStatus{DonationStatusPending}, To: DonationStatusCompleted}, DonationStatusPending, false},
	}
	for _, tc := range cases {
		if got := tc.tr.Allows(tc.current); got != tc.want {
			t.Errorf("%s: Allows(%s) = %v, want %v", tc.name, tc.current, got, tc.want)
		}
	}
}
