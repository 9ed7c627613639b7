package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reboothq/reboot_backend/config"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type payoutRow struct {
	UserId             int             `json:"user_id"`
	Email              string          `json:"email"`
	FirstName          string          `json:"first_name"`
	LastName           string          `json:"last_name"`
	Balance            decimal.Decimal `json:"balance"`
	TotalApprovedHours decimal.Decimal `json:"total_approved_hours"`
	TotalSpent         decimal.Decimal `json:"total_spent"`
}

func getPayoutRows(c *gin.Context) ([]payoutRow, error) {
	sql := `
SELECT
    users.id AS user_id,
    users.email,
    users.first_name,
    users.last_name,
    users.balance,
    COALESCE(p.total_approved_hours, 0) AS total_approved_hours,
    COALESCE(o.total_spent, 0) AS total_spent
FROM
    users
    LEFT JOIN (
        SELECT user_id, SUM(approved_hours) AS total_approved_hours
        FROM projects
        WHERE approval_reason IS NOT NULL
        GROUP BY user_id
    ) AS p ON p.user_id = users.id
    LEFT JOIN (
        SELECT user_id, SUM(total) AS total_spent
        FROM shop_orders
        WHERE status <> 'rejected'
        GROUP BY user_id
    ) AS o ON o.user_id = users.id
ORDER BY users.id;
`
	var rows []payoutRow
	db := config.GetDB()
	if err := db.WithContext(c.Request.Context()).Raw(sql).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// PayoutsExport writes the payout ledger as an xlsx download.
func PayoutsExport(c *gin.Context) {
	rows, err := getPayoutRows(c)
	if err != nil {
		renderError(c, err)
		return
	}

	f := excelize.NewFile()
	if _, err := f.NewSheet("Sheet1"); err != nil {
		renderError(c, err)
		return
	}

	// Add headers
	f.SetCellValue("Sheet1", "A1", "UserId")
	f.SetCellValue("Sheet1", "B1", "Email")
	f.SetCellValue("Sheet1", "C1", "FirstName")
	f.SetCellValue("Sheet1", "D1", "LastName")
	f.SetCellValue("Sheet1", "E1", "Balance")
	f.SetCellValue("Sheet1", "F1", "ApprovedHours")
	f.SetCellValue("Sheet1", "G1", "TotalSpent")

	// Add data
	for i, row := range rows {
		f.SetCellValue("Sheet1", "A"+fmt.Sprint(i+2), row.UserId)
		f.SetCellValue("Sheet1", "B"+fmt.Sprint(i+2), row.Email)
		f.SetCellValue("Sheet1", "C"+fmt.Sprint(i+2), row.FirstName)
		f.SetCellValue("Sheet1", "D"+fmt.Sprint(i+2), row.LastName)
		f.SetCellValue("Sheet1", "E"+fmt.Sprint(i+2), row.Balance.InexactFloat64())
		f.SetCellValue("Sheet1", "F"+fmt.Sprint(i+2), row.TotalApprovedHours.InexactFloat64())
		f.SetCellValue("Sheet1", "G"+fmt.Sprint(i+2), row.TotalSpent.InexactFloat64())
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=payouts.xlsx")
	if err := f.Write(c.Writer); err != nil {
		config.LogError(config.GetLogger(), "handlers", "PayoutsExport", "write xlsx", nil, err)
	}
	c.Status(http.StatusOK)
}
