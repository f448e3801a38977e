package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Units accepted by the breakdown endpoints' unit toggle
const (
	UnitEnergy = "kWh"
	UnitCost   = "£"
)

// Default query windows used when a view does not narrow them
const (
	DefaultTrendDays   = 30
	DefaultTrendWeeks  = 15
	DefaultTrendMonths = 12
	DefaultTrendYears  = 10
)

// TodayUsage holds today's running totals
type TodayUsage struct {
	TotalEnergyDay float64 `json:"total_energy_day"`
	TotalCostDay   float64 `json:"total_cost_day"`
}

// DailyTrendPoint is one day in the daily usage/cost trend
type DailyTrendPoint struct {
	Day            string  `json:"day"`
	TotalEnergyDay float64 `json:"total_energy_day"`
	TotalCostDay   float64 `json:"total_cost_day"`
}

// BillingMonth is one month of billing history
type BillingMonth struct {
	Month     string  `json:"month"`
	TotalCost float64 `json:"total_cost"`
}

// HourPoint is one hour of a daily breakdown, valued in the requested unit
type HourPoint struct {
	Hour  string  `json:"hour"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// DayPoint is one day of a range/week/month breakdown, valued in the requested unit
type DayPoint struct {
	Day   string  `json:"day"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// MonthPoint is one month of a yearly breakdown, valued in the requested unit
type MonthPoint struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// WeeklyTrendPoint is one week in the weekly trend
type WeeklyTrendPoint struct {
	Week            string  `json:"week"`
	TotalEnergyWeek float64 `json:"total_energy_week"`
	TotalCostWeek   float64 `json:"total_cost_week"`
}

// MonthlyTrendPoint is one month in the monthly trend
type MonthlyTrendPoint struct {
	Month            string  `json:"month"`
	TotalEnergyMonth float64 `json:"total_energy_month"`
	TotalCostMonth   float64 `json:"total_cost_month"`
}

// YearlyTrendPoint is one year in the yearly trend
type YearlyTrendPoint struct {
	Year            string  `json:"year"`
	TotalEnergyYear float64 `json:"total_energy_year"`
	TotalCostYear   float64 `json:"total_cost_year"`
}

// MonthlyBreakdown is the per-day breakdown of one month plus its total cost
type MonthlyBreakdown struct {
	SelectedMonth  string     `json:"selected_month"`
	TotalMonthCost float64    `json:"total_month_cost"`
	Breakdown      []DayPoint `json:"monthly_breakdown"`
}

// YearlyBreakdown is the per-month breakdown of one year plus its total cost
type YearlyBreakdown struct {
	SelectedYear  string       `json:"selected_year"`
	TotalYearCost float64      `json:"total_year_cost"`
	Breakdown     []MonthPoint `json:"yearly_breakdown"`
}

// RateUpdate is the backend's acknowledgement of a rate change
type RateUpdate struct {
	Message   string  `json:"message"`
	NewRate   float64 `json:"new_rate"`
	DeviceID  string  `json:"device_id"`
	StartTime string  `json:"start_time"`
}

// UpdateRateRequest represents the rate update request body
type UpdateRateRequest struct {
	DeviceID string  `json:"device_id"`
	NewRate  float64 `json:"new_rate"`
}

func deviceQuery(deviceID string) url.Values {
	query := url.Values{}
	if deviceID != "" {
		query.Set("device_id", deviceID)
	}
	return query
}

// CurrentUsage returns the instantaneous power draw in watts, or 0 on failure
func (c *Client) CurrentUsage(ctx context.Context, token, deviceID string) float64 {
	var resp struct {
		CurrentUsage float64 `json:"current_usage"`
	}
	if err := c.do(ctx, http.MethodGet, "/current-usage", token, deviceQuery(deviceID), nil, &resp); err != nil {
		c.readFailed("/current-usage", err)
		return 0
	}
	return resp.CurrentUsage
}

// CurrentRate returns the active energy rate in £/kWh, or 0 on failure
func (c *Client) CurrentRate(ctx context.Context, token, deviceID string) float64 {
	var resp struct {
		Rate float64 `json:"rate"`
	}
	if err := c.do(ctx, http.MethodGet, "/current-rate", token, deviceQuery(deviceID), nil, &resp); err != nil {
		c.readFailed("/current-rate", err)
		return 0
	}
	return resp.Rate
}

// CurrentVoltage returns the supply voltage, or 0 on failure
func (c *Client) CurrentVoltage(ctx context.Context, token, deviceID string) float64 {
	var resp struct {
		Voltage float64 `json:"voltage"`
	}
	if err := c.do(ctx, http.MethodGet, "/current-voltage", token, deviceQuery(deviceID), nil, &resp); err != nil {
		c.readFailed("/current-voltage", err)
		return 0
	}
	return resp.Voltage
}

// GetTodayUsage returns today's energy and cost totals, zero-valued on failure
func (c *Client) GetTodayUsage(ctx context.Context, token, deviceID string) TodayUsage {
	var usage TodayUsage
	if err := c.do(ctx, http.MethodGet, "/today-usage", token, deviceQuery(deviceID), nil, &usage); err != nil {
		c.readFailed("/today-usage", err)
		return TodayUsage{}
	}
	return usage
}

// DailyTrends returns the usage/cost trend for the last days days, empty on failure
func (c *Client) DailyTrends(ctx context.Context, token, deviceID string, days int) []DailyTrendPoint {
	query := deviceQuery(deviceID)
	query.Set("days", strconv.Itoa(days))

	var resp struct {
		DailyTrends []DailyTrendPoint `json:"daily_trends"`
	}
	if err := c.do(ctx, http.MethodGet, "/daily-trends", token, query, nil, &resp); err != nil {
		c.readFailed("/daily-trends", err)
		return nil
	}
	return resp.DailyTrends
}

// MonthlyBillingHistory returns the last three months of billing, empty on failure
func (c *Client) MonthlyBillingHistory(ctx context.Context, token, deviceID string) []BillingMonth {
	var resp struct {
		BillingHistory []BillingMonth `json:"billing_history"`
	}
	if err := c.do(ctx, http.MethodGet, "/monthly-billing-history", token, deviceQuery(deviceID), nil, &resp); err != nil {
		c.readFailed("/monthly-billing-history", err)
		return nil
	}
	return resp.BillingHistory
}

// HourlyUsage returns the per-hour breakdown of selectedDay in the requested
// unit. An empty selectedDay asks the backend for the latest available day.
func (c *Client) HourlyUsage(ctx context.Context, token, deviceID, selectedDay, unit string) []HourPoint {
	query := deviceQuery(deviceID)
	query.Set("unit", unit)
	if selectedDay != "" {
		query.Set("selected_day", selectedDay)
	}

	var resp struct {
		HourlyUsage []HourPoint `json:"hourly_usage"`
	}
	if err := c.do(ctx, http.MethodGet, "/hourly-usage", token, query, nil, &resp); err != nil {
		c.readFailed("/hourly-usage", err)
		return nil
	}
	return resp.HourlyUsage
}

// DailyRangeUsage returns the per-day breakdown of a date range in the
// requested unit. Empty dates default to the backend's last seven days.
func (c *Client) DailyRangeUsage(ctx context.Context, token, deviceID, startDate, endDate, unit string) []DayPoint {
	query := deviceQuery(deviceID)
	query.Set("unit", unit)
	if startDate != "" {
		query.Set("start_date", startDate)
	}
	if endDate != "" {
		query.Set("end_date", endDate)
	}

	var resp struct {
		DailyUsage []DayPoint `json:"daily_usage"`
	}
	if err := c.do(ctx, http.MethodGet, "/daily-range-usage", token, query, nil, &resp); err != nil {
		c.readFailed("/daily-range-usage", err)
		return nil
	}
	return resp.DailyUsage
}

// TotalCostRange returns the total cost of a date range, or 0 on failure
func (c *Client) TotalCostRange(ctx context.Context, token, deviceID, startDate, endDate string) float64 {
	query := deviceQuery(deviceID)
	if startDate != "" {
		query.Set("start_date", startDate)
	}
	if endDate != "" {
		query.Set("end_date", endDate)
	}

	var resp struct {
		TotalCost float64 `json:"total_cost"`
	}
	if err := c.do(ctx, http.MethodGet, "/total-cost-day-range", token, query, nil, &resp); err != nil {
		c.readFailed("/total-cost-day-range", err)
		return 0
	}
	return resp.TotalCost
}

// WeeklyTrends returns the last weeks weeks of usage/cost, empty on failure
func (c *Client) WeeklyTrends(ctx context.Context, token, deviceID string, weeks int) []WeeklyTrendPoint {
	query := deviceQuery(deviceID)
	query.Set("weeks", strconv.Itoa(weeks))

	var resp struct {
		WeeklyTrends []WeeklyTrendPoint `json:"weekly_trends"`
	}
	if err := c.do(ctx, http.MethodGet, "/weekly-trends", token, query, nil, &resp); err != nil {
		c.readFailed("/weekly-trends", err)
		return nil
	}
	return resp.WeeklyTrends
}

// WeeklyBreakdown returns the per-day breakdown of a week in the requested
// unit. An empty selectedWeek asks the backend for the latest available week.
func (c *Client) WeeklyBreakdown(ctx context.Context, token, deviceID, selectedWeek, unit string) []DayPoint {
	query := deviceQuery(deviceID)
	query.Set("unit", unit)
	if selectedWeek != "" {
		query.Set("selected_week", selectedWeek)
	}

	var resp struct {
		WeeklyBreakdown []DayPoint `json:"weekly_breakdown"`
	}
	if err := c.do(ctx, http.MethodGet, "/weekly-breakdown", token, query, nil, &resp); err != nil {
		c.readFailed("/weekly-breakdown", err)
		return nil
	}
	return resp.WeeklyBreakdown
}

// MonthlyTrends returns the last months months of usage/cost, empty on failure
func (c *Client) MonthlyTrends(ctx context.Context, token, deviceID string, months int) []MonthlyTrendPoint {
	query := deviceQuery(deviceID)
	query.Set("months", strconv.Itoa(months))

	var resp struct {
		MonthlyTrends []MonthlyTrendPoint `json:"monthly_trends"`
	}
	if err := c.do(ctx, http.MethodGet, "/monthly-trends", token, query, nil, &resp); err != nil {
		c.readFailed("/monthly-trends", err)
		return nil
	}
	return resp.MonthlyTrends
}

// GetMonthlyBreakdown returns the per-day breakdown of a month plus its total
// cost, zero-valued on failure. An empty selectedMonth means latest available.
func (c *Client) GetMonthlyBreakdown(ctx context.Context, token, deviceID, selectedMonth, unit string) MonthlyBreakdown {
	query := deviceQuery(deviceID)
	query.Set("unit", unit)
	if selectedMonth != "" {
		query.Set("selected_month", selectedMonth)
	}

	var breakdown MonthlyBreakdown
	if err := c.do(ctx, http.MethodGet, "/monthly-breakdown", token, query, nil, &breakdown); err != nil {
		c.readFailed("/monthly-breakdown", err)
		return MonthlyBreakdown{}
	}
	return breakdown
}

// YearlyTrends returns the last years years of usage/cost, empty on failure
func (c *Client) YearlyTrends(ctx context.Context, token, deviceID string, years int) []YearlyTrendPoint {
	query := deviceQuery(deviceID)
	query.Set("years", strconv.Itoa(years))

	var resp struct {
		YearlyTrends []YearlyTrendPoint `json:"yearly_trends"`
	}
	if err := c.do(ctx, http.MethodGet, "/yearly-trends", token, query, nil, &resp); err != nil {
		c.readFailed("/yearly-trends", err)
		return nil
	}
	return resp.YearlyTrends
}

// GetYearlyBreakdown returns the per-month breakdown of a year plus its total
// cost, zero-valued on failure. An empty selectedYear means latest available.
func (c *Client) GetYearlyBreakdown(ctx context.Context, token, deviceID, selectedYear, unit string) YearlyBreakdown {
	query := deviceQuery(deviceID)
	query.Set("unit", unit)
	if selectedYear != "" {
		query.Set("selected_year", selectedYear)
	}

	var breakdown YearlyBreakdown
	if err := c.do(ctx, http.MethodGet, "/yearly-breakdown", token, query, nil, &breakdown); err != nil {
		c.readFailed("/yearly-breakdown", err)
		return YearlyBreakdown{}
	}
	return breakdown
}

// UpdateRate sets a new energy rate for the device. Mutating, so failures are
// returned to the caller instead of swallowed.
func (c *Client) UpdateRate(ctx context.Context, token, deviceID string, newRate float64) (*RateUpdate, error) {
	req := UpdateRateRequest{
		DeviceID: deviceID,
		NewRate:  newRate,
	}

	var update RateUpdate
	if err := c.do(ctx, http.MethodPut, "/update-rate", token, nil, req, &update); err != nil {
		return nil, err
	}
	return &update, nil
}
