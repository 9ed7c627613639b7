package airtable

import (
	"testing"
	"time"

	"github.com/reboothq/reboot_backend/models"
	"github.com/reboothq/reboot_backend/utils"
	"github.com/shopspring/decimal"
)

func TestMapUserOmitsUnknownFields(t *testing.T) {
	user := &models.User{
		ID:        1,
		Email:     "kid@example.com",
		FirstName: "Ada",
		LastName:  "L",
		Balance:   decimal.NewFromInt(120),
	}

	fields := MapUser(user)
	if fields["Email"] != "kid@example.com" {
		t.Fatalf("Email: got %v", fields["Email"])
	}
	if fields["Balance"] != float64(120) {
		t.Fatalf("Balance: got %v", fields["Balance"])
	}
	if _, ok := fields["Age"]; ok {
		t.Fatal("Age should be omitted for nil birthday")
	}
	if _, ok := fields["Slack ID"]; ok {
		t.Fatal("Slack ID should be omitted when nil")
	}
}

func TestMapUserIsDeterministic(t *testing.T) {
	birthday := time.Date(2008, 3, 14, 0, 0, 0, 0, time.UTC)
	user := &models.User{
		Email:    "kid@example.com",
		Birthday: &birthday,
		SlackId:  utils.StrPtr("U12345"),
		Balance:  decimal.NewFromFloat(33.5),
	}

	first := MapUser(user)
	second := MapUser(user)
	if len(first) != len(second) {
		t.Fatalf("mapper not deterministic: %d vs %d fields", len(first), len(second))
	}
	for k, v := range first {
		if second[k] != v {
			t.Fatalf("mapper not deterministic for %q: %v vs %v", k, v, second[k])
		}
	}
	if first["Slack ID"] != "U12345" {
		t.Fatalf("Slack ID: got %v", first["Slack ID"])
	}
	if _, ok := first["Age"].(int); !ok {
		t.Fatalf("Age should be an int, got %T", first["Age"])
	}
}

func TestMapSubmission(t *testing.T) {
	submitted := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	project := &models.Project{
		ID:            7,
		Title:         "Game of Life",
		Description:   utils.StrPtr("cellular automaton"),
		CodeUrl:       utils.StrPtr("https://example.com/code"),
		PlayableUrl:   utils.StrPtr("https://example.com/play"),
		ScreenshotUrl: utils.StrPtr("https://example.com/shot.png"),
		Status:        models.ProjectStatusApproved,
		ApprovedHours: decimal.NewFromInt(10),
		SubmittedAt:   &submitted,
		User:          &models.User{Email: "kid@example.com"},
	}

	fields := MapSubmission(project)
	if fields["Project Title"] != "Game of Life" {
		t.Fatalf("Project Title: got %v", fields["Project Title"])
	}
	if fields["Approved Hours"] != float64(10) {
		t.Fatalf("Approved Hours: got %v", fields["Approved Hours"])
	}
	if fields["Email"] != "kid@example.com" {
		t.Fatalf("Email: got %v", fields["Email"])
	}
	if fields["Submitted At"] != "2026-02-01T10:00:00Z" {
		t.Fatalf("Submitted At: got %v", fields["Submitted At"])
	}
}

func TestMapSubmissionHandlesBareProject(t *testing.T) {
	project := &models.Project{ID: 1, Title: "Bare", Status: models.ProjectStatusApproved}

	fields := MapSubmission(project)
	for _, name := range []string{"Description", "Code URL", "Playable URL", "Screenshot URL", "Submitted At", "Email"} {
		if _, ok := fields[name]; ok {
			t.Fatalf("%s should be omitted for a bare project", name)
		}
	}
}

func TestShopItemAttrs(t *testing.T) {
	rec := Record{
		ID: "recABC",
		Fields: map[string]interface{}{
			"Name":        "Sticker Pack",
			"Description": "ten stickers",
			"Price":       float64(15.5),
			"Stock":       float64(3),
			"Enabled":     true,
		},
	}

	attrs := shopItemAttrs(rec)
	if attrs["name"] != "Sticker Pack" {
		t.Fatalf("name: got %v", attrs["name"])
	}
	price, ok := attrs["price"].(decimal.Decimal)
	if !ok || !price.Equal(decimal.NewFromFloat(15.5)) {
		t.Fatalf("price: got %v", attrs["price"])
	}
	stock, ok := attrs["stock"].(*int)
	if !ok || *stock != 3 {
		t.Fatalf("stock: got %v", attrs["stock"])
	}
	if attrs["enabled"] != true {
		t.Fatalf("enabled: got %v", attrs["enabled"])
	}
}

func TestShopItemAttrsDefaults(t *testing.T) {
	attrs := shopItemAttrs(Record{ID: "recEmpty", Fields: map[string]interface{}{}})
	if attrs["name"] != "" {
		t.Fatalf("name default: got %v", attrs["name"])
	}
	if attrs["enabled"] != true {
		t.Fatalf("enabled should default to true, got %v", attrs["enabled"])
	}
	if _, ok := attrs["stock"]; ok {
		t.Fatal("stock should be absent when the cell is missing")
	}
	price, ok := attrs["price"].(decimal.Decimal)
	if !ok || !price.IsZero() {
		t.Fatalf("price default: got %v", attrs["price"])
	}
}
