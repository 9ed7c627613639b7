package config

import (
	"os"
	"strings"
)

// Airtable connection settings. Table names are env-overridable so staging
// can point at a scratch base without code changes.

func AirtableAPIKey() string {
	return strings.TrimSpace(os.Getenv("AIRTABLE_API_KEY"))
}

func AirtableBaseID() string {
	return strings.TrimSpace(os.Getenv("AIRTABLE_BASE_ID"))
}

func AirtableBaseURL() string {
	v := strings.TrimSpace(os.Getenv("AIRTABLE_API_BASE_URL"))
	if v == "" {
		v = "https://api.airtable.com/v0"
	}
	return strings.TrimRight(v, "/")
}

func AirtableUsersTable() string {
	return tableFromEnv("AIRTABLE_USERS_TABLE", "Users")
}

func AirtableOrdersTable() string {
	return tableFromEnv("AIRTABLE_ORDERS_TABLE", "Orders")
}

func AirtableShopItemsTable() string {
	return tableFromEnv("AIRTABLE_SHOP_ITEMS_TABLE", "Shop Items")
}

func AirtableSubmissionsTable() string {
	return tableFromEnv("AIRTABLE_SUBMISSIONS_TABLE", "YSWS Project Submission")
}

func tableFromEnv(key string, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
