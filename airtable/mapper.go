package airtable

import (
	"time"

	"github.com/reboothq/reboot_backend/models"
	"github.com/shopspring/decimal"
)

// Field mappers are pure: same record in, same fields out. Nullable source
// fields are omitted rather than sent as empty strings so remote cells are
// not clobbered with blanks.

func MapUser(user *models.User) map[string]interface{} {
	fields := map[string]interface{}{
		"Email":      user.Email,
		"First Name": user.FirstName,
		"Last Name":  user.LastName,
		"Balance":    numberField(user.Balance),
	}
	if age := user.Age(); age != nil {
		fields["Age"] = *age
	}
	if user.SlackId != nil {
		fields["Slack ID"] = *user.SlackId
	}
	if user.SlackUsername != nil {
		fields["Slack Username"] = *user.SlackUsername
	}
	return fields
}

func MapShopOrder(order *models.ShopOrder) map[string]interface{} {
	fields := map[string]interface{}{
		"Order ID":   order.ID,
		"Quantity":   order.Quantity,
		"Unit Price": numberField(order.UnitPrice),
		"Total":      numberField(order.Total),
		"Status":     string(order.Status),
		"Ordered At": timeField(order.CreatedAt),
	}
	if order.User != nil {
		fields["User Email"] = order.User.Email
	}
	if order.ShopItem != nil {
		fields["Item Name"] = order.ShopItem.Name
	}
	return fields
}

func MapSubmission(project *models.Project) map[string]interface{} {
	fields := map[string]interface{}{
		"Project Title":  project.Title,
		"Status":         string(project.Status),
		"Approved Hours": numberField(project.ApprovedHours),
	}
	if project.Description != nil {
		fields["Description"] = *project.Description
	}
	if project.CodeUrl != nil {
		fields["Code URL"] = *project.CodeUrl
	}
	if project.PlayableUrl != nil {
		fields["Playable URL"] = *project.PlayableUrl
	}
	if project.ScreenshotUrl != nil {
		fields["Screenshot URL"] = *project.ScreenshotUrl
	}
	if project.SubmittedAt != nil {
		fields["Submitted At"] = timeField(*project.SubmittedAt)
	}
	if project.User != nil {
		fields["Email"] = project.User.Email
	}
	return fields
}

// shopItemAttrs converts a remote catalog row into local column values for
// the pull upsert. Unknown or malformed cells fall back to zero values; the
// catalog is remote-owned so there is nothing local to preserve.
func shopItemAttrs(rec Record) map[string]interface{} {
	attrs := map[string]interface{}{
		"name":        stringCell(rec.Fields, "Name"),
		"description": stringCell(rec.Fields, "Description"),
		"image_url":   stringCell(rec.Fields, "Image URL"),
		"price":       decimalCell(rec.Fields, "Price"),
		"enabled":     boolCell(rec.Fields, "Enabled", true),
	}
	if v, ok := rec.Fields["Stock"]; ok {
		if f, ok := v.(float64); ok {
			stock := int(f)
			attrs["stock"] = &stock
		}
	}
	return attrs
}

func numberField(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func timeField(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func stringCell(fields map[string]interface{}, name string) string {
	if v, ok := fields[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func decimalCell(fields map[string]interface{}, name string) decimal.Decimal {
	if v, ok := fields[name]; ok {
		if f, ok := v.(float64); ok {
			return decimal.NewFromFloat(f)
		}
		if s, ok := v.(string); ok {
			if d, err := decimal.NewFromString(s); err == nil {
				return d
			}
		}
	}
	return decimal.Zero
}

func boolCell(fields map[string]interface{}, name string, def bool) bool {
	if v, ok := fields[name]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}
