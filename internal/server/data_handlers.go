package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mywatt/dashboard/internal/api"
	"github.com/mywatt/dashboard/internal/session"
)

// Chart-data endpoints. Each one proxies a backend read through the API
// client, scoped to the session's device and token; the client already
// degrades reads to safe defaults, so these always answer 200 with whatever
// data is available. Page scripts re-fetch on every parameter change and
// discard stale responses by request generation.

func dataSession(c *gin.Context) *session.Session {
	sess, _ := CurrentSession(c)
	return sess
}

// unitParam returns the requested unit toggle, defaulting to energy
func unitParam(c *gin.Context) string {
	if c.Query("unit") == api.UnitCost {
		return api.UnitCost
	}
	return api.UnitEnergy
}

// windowParam parses a positive integer query parameter, falling back to def
func windowParam(c *gin.Context, name string, def int) int {
	value := def
	if raw := c.Query(name); raw != "" {
		var parsed int
		for _, ch := range raw {
			if ch < '0' || ch > '9' {
				return def
			}
			parsed = parsed*10 + int(ch-'0')
		}
		if parsed > 0 {
			value = parsed
		}
	}
	return value
}

func (s *Server) dataCurrentUsage(c *gin.Context) {
	sess := dataSession(c)
	c.JSON(http.StatusOK, gin.H{
		"current_usage": s.apiClient.CurrentUsage(c.Request.Context(), sess.Token, deviceID(c, sess)),
	})
}

func (s *Server) dataCurrentRate(c *gin.Context) {
	sess := dataSession(c)
	c.JSON(http.StatusOK, gin.H{
		"rate": s.apiClient.CurrentRate(c.Request.Context(), sess.Token, deviceID(c, sess)),
	})
}

func (s *Server) dataCurrentVoltage(c *gin.Context) {
	sess := dataSession(c)
	c.JSON(http.StatusOK, gin.H{
		"voltage": s.apiClient.CurrentVoltage(c.Request.Context(), sess.Token, deviceID(c, sess)),
	})
}

func (s *Server) dataTodayUsage(c *gin.Context) {
	sess := dataSession(c)
	c.JSON(http.StatusOK, s.apiClient.GetTodayUsage(c.Request.Context(), sess.Token, deviceID(c, sess)))
}

func (s *Server) dataDailyTrends(c *gin.Context) {
	sess := dataSession(c)
	days := windowParam(c, "days", api.DefaultTrendDays)
	c.JSON(http.StatusOK, gin.H{
		"daily_trends": s.apiClient.DailyTrends(c.Request.Context(), sess.Token, deviceID(c, sess), days),
	})
}

func (s *Server) dataBillingHistory(c *gin.Context) {
	sess := dataSession(c)
	c.JSON(http.StatusOK, gin.H{
		"billing_history": s.apiClient.MonthlyBillingHistory(c.Request.Context(), sess.Token, deviceID(c, sess)),
	})
}

func (s *Server) dataHourlyUsage(c *gin.Context) {
	sess := dataSession(c)
	points := s.apiClient.HourlyUsage(c.Request.Context(), sess.Token, deviceID(c, sess),
		c.Query("selected_day"), unitParam(c))
	c.JSON(http.StatusOK, gin.H{"hourly_usage": points})
}

func (s *Server) dataDailyRangeUsage(c *gin.Context) {
	sess := dataSession(c)
	points := s.apiClient.DailyRangeUsage(c.Request.Context(), sess.Token, deviceID(c, sess),
		c.Query("start_date"), c.Query("end_date"), unitParam(c))
	c.JSON(http.StatusOK, gin.H{"daily_usage": points})
}

func (s *Server) dataTotalCostRange(c *gin.Context) {
	sess := dataSession(c)
	total := s.apiClient.TotalCostRange(c.Request.Context(), sess.Token, deviceID(c, sess),
		c.Query("start_date"), c.Query("end_date"))
	c.JSON(http.StatusOK, gin.H{"total_cost": total})
}

func (s *Server) dataWeeklyTrends(c *gin.Context) {
	sess := dataSession(c)
	weeks := windowParam(c, "weeks", api.DefaultTrendWeeks)
	c.JSON(http.StatusOK, gin.H{
		"weekly_trends": s.apiClient.WeeklyTrends(c.Request.Context(), sess.Token, deviceID(c, sess), weeks),
	})
}

func (s *Server) dataWeeklyBreakdown(c *gin.Context) {
	sess := dataSession(c)
	points := s.apiClient.WeeklyBreakdown(c.Request.Context(), sess.Token, deviceID(c, sess),
		c.Query("selected_week"), unitParam(c))
	c.JSON(http.StatusOK, gin.H{"weekly_breakdown": points})
}

func (s *Server) dataMonthlyTrends(c *gin.Context) {
	sess := dataSession(c)
	months := windowParam(c, "months", api.DefaultTrendMonths)
	c.JSON(http.StatusOK, gin.H{
		"monthly_trends": s.apiClient.MonthlyTrends(c.Request.Context(), sess.Token, deviceID(c, sess), months),
	})
}

func (s *Server) dataMonthlyBreakdown(c *gin.Context) {
	sess := dataSession(c)
	breakdown := s.apiClient.GetMonthlyBreakdown(c.Request.Context(), sess.Token, deviceID(c, sess),
		c.Query("selected_month"), unitParam(c))
	c.JSON(http.StatusOK, breakdown)
}

func (s *Server) dataYearlyTrends(c *gin.Context) {
	sess := dataSession(c)
	years := windowParam(c, "years", api.DefaultTrendYears)
	c.JSON(http.StatusOK, gin.H{
		"yearly_trends": s.apiClient.YearlyTrends(c.Request.Context(), sess.Token, deviceID(c, sess), years),
	})
}

func (s *Server) dataYearlyBreakdown(c *gin.Context) {
	sess := dataSession(c)
	breakdown := s.apiClient.GetYearlyBreakdown(c.Request.Context(), sess.Token, deviceID(c, sess),
		c.Query("selected_year"), unitParam(c))
	c.JSON(http.StatusOK, breakdown)
}
