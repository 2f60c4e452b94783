package repository

import (
	"fmt"
	"log"
	"math"
	"time"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"

	"github.com/camden-git/cardboardbackend/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// StatsReport is the aggregate collection report served by /api/stats. It is
// recomputed from scratch on every request.
type StatsReport struct {
	TotalGames        int               `json:"total_games"`
	ByStatus          map[string]int    `json:"by_status"`
	TotalSessions     int               `json:"total_sessions"`
	TotalHours        float64           `json:"total_hours"`
	AvgSessionMinutes float64           `json:"avg_session_minutes"`
	MostPlayed        []MostPlayedEntry `json:"most_played"`
	NeverPlayedCount  int               `json:"never_played_count"`
	AvgRating         *float64          `json:"avg_rating"`
	TotalSpent        *float64          `json:"total_spent"`
	LabelCounts       map[string]int    `json:"label_counts"`
	RatingBuckets     map[string]int    `json:"rating_buckets"`
	AddedByMonth      []MonthCount      `json:"added_by_month"`
	SessionsByMonth   []MonthCount      `json:"sessions_by_month"`
	RecentSessions    []RecentSession   `json:"recent_sessions"`
}

// MostPlayedEntry is one game in the most-played ranking
type MostPlayedEntry struct {
	GameID       int64  `json:"game_id"`
	Name         string `json:"name"`
	SessionCount int    `json:"session_count"`
	TotalMinutes int    `json:"total_minutes"`
}

// MonthCount is one month in a trailing twelve month series
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// RecentSession is one entry in the recent activity feed
type RecentSession struct {
	ID              int64   `json:"id"`
	GameID          int64   `json:"game_id"`
	GameName        string  `json:"game_name"`
	PlayedAt        string  `json:"played_at"`
	PlayerCount     *int    `json:"player_count,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

// user ratings are grouped into fixed histogram buckets
var ratingBucketKeys = []string{"1–2", "3–4", "5–6", "7–8", "9–10"}

func ratingBucket(r float64) string {
	switch {
	case r <= 2:
		return ratingBucketKeys[0]
	case r <= 4:
		return ratingBucketKeys[1]
	case r <= 6:
		return ratingBucketKeys[2]
	case r <= 8:
		return ratingBucketKeys[3]
	default:
		return ratingBucketKeys[4]
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// StatsRepository computes the collection statistics report
type StatsRepository struct {
	DB *gorm.DB
}

// NewStatsRepository creates a new instance of StatsRepository
func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{DB: db}
}

// Compute builds the full statistics report
func (r *StatsRepository) Compute() (*StatsReport, error) {
	report := &StatsReport{
		ByStatus: map[string]int{
			models.StatusOwned:    0,
			models.StatusWishlist: 0,
			models.StatusSold:     0,
		},
		MostPlayed:     []MostPlayedEntry{},
		LabelCounts:    map[string]int{},
		RatingBuckets:  map[string]int{},
		RecentSessions: []RecentSession{},
	}
	for _, key := range ratingBucketKeys {
		report.RatingBuckets[key] = 0
	}

	var games []models.Game
	if err := r.DB.Find(&games).Error; err != nil {
		return nil, fmt.Errorf("failed to load games for stats: %w", err)
	}
	report.TotalGames = len(games)

	gameNames := make(map[int64]string, len(games))
	var ratingSum, spentSum float64
	var ratingCount, spentCount int
	for _, g := range games {
		gameNames[g.ID] = g.Name

		status := g.Status
		if status == "" {
			status = models.StatusOwned
		}
		report.ByStatus[status]++

		for _, label := range g.Labels {
			report.LabelCounts[label]++
		}

		if g.UserRating != nil {
			ratingSum += *g.UserRating
			ratingCount++
			report.RatingBuckets[ratingBucket(*g.UserRating)]++
		}
		if g.PurchasePrice != nil {
			spentSum += *g.PurchasePrice
			spentCount++
		}
	}
	if ratingCount > 0 {
		avg := round1(ratingSum / float64(ratingCount))
		report.AvgRating = &avg
	}
	if spentCount > 0 {
		total := round2(spentSum)
		report.TotalSpent = &total
	}

	// overall session totals
	sqlStr, args, err := psql.Select("COUNT(*)", "COALESCE(SUM(duration_minutes), 0)").
		From("play_sessions").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for session totals: %w", err)
	}
	var totalSessions, totalMinutes int
	if err := r.DB.Raw(sqlStr, args...).Row().Scan(&totalSessions, &totalMinutes); err != nil {
		return nil, fmt.Errorf("failed to compute session totals: %w", err)
	}
	report.TotalSessions = totalSessions
	report.TotalHours = round1(float64(totalMinutes) / 60.0)
	if totalSessions > 0 {
		report.AvgSessionMinutes = round1(float64(totalMinutes) / float64(totalSessions))
	}

	// top games by session count; games deleted since their sessions were
	// logged are skipped
	sqlStr, args, err = psql.Select("game_id", "COUNT(*) AS plays", "COALESCE(SUM(duration_minutes), 0) AS minutes").
		From("play_sessions").
		GroupBy("game_id").
		OrderBy("plays DESC").
		Limit(5).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for most played: %w", err)
	}
	var plays []struct {
		GameID  int64
		Plays   int
		Minutes int
	}
	if err := r.DB.Raw(sqlStr, args...).Scan(&plays).Error; err != nil {
		return nil, fmt.Errorf("failed to compute most played: %w", err)
	}
	for _, p := range plays {
		name, ok := gameNames[p.GameID]
		if !ok {
			continue
		}
		report.MostPlayed = append(report.MostPlayed, MostPlayedEntry{
			GameID:       p.GameID,
			Name:         name,
			SessionCount: p.Plays,
			TotalMinutes: p.Minutes,
		})
	}

	sqlStr, args, err = psql.Select("game_id").Distinct().From("play_sessions").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for played games: %w", err)
	}
	var playedIDs []int64
	if err := r.DB.Raw(sqlStr, args...).Scan(&playedIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to list played games: %w", err)
	}
	playedSet := make(map[int64]bool, len(playedIDs))
	for _, id := range playedIDs {
		playedSet[id] = true
	}
	for _, g := range games {
		if !playedSet[g.ID] {
			report.NeverPlayedCount++
		}
	}

	addedByMonth, err := r.monthCounts("games", "date_added")
	if err != nil {
		return nil, err
	}
	sessionsByMonth, err := r.monthCounts("play_sessions", "played_at")
	if err != nil {
		return nil, err
	}
	window := monthWindow(time.Now())
	report.AddedByMonth = make([]MonthCount, 0, len(window))
	report.SessionsByMonth = make([]MonthCount, 0, len(window))
	for _, m := range window {
		key := m.Format("2006-01")
		label := m.Format("Jan 2006")
		report.AddedByMonth = append(report.AddedByMonth, MonthCount{Month: label, Count: addedByMonth[key]})
		report.SessionsByMonth = append(report.SessionsByMonth, MonthCount{Month: label, Count: sessionsByMonth[key]})
	}

	sqlStr, args, err = psql.Select(
		"ps.id", "ps.game_id", "COALESCE(g.name, 'Unknown') AS game_name",
		"ps.played_at", "ps.player_count", "ps.duration_minutes", "ps.notes").
		From("play_sessions ps").
		LeftJoin("games g ON g.id = ps.game_id").
		OrderBy("ps.played_at DESC", "ps.date_added DESC").
		Limit(10).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for recent sessions: %w", err)
	}
	if err := r.DB.Raw(sqlStr, args...).Scan(&report.RecentSessions).Error; err != nil {
		return nil, fmt.Errorf("failed to list recent sessions: %w", err)
	}

	log.Printf("Stats computed: %d games, %d sessions", report.TotalGames, report.TotalSessions)
	return report, nil
}

// monthCounts groups a table's rows by calendar month of the given date
// column, keyed YYYY-MM. Both DATETIME and plain date columns parse.
func (r *StatsRepository) monthCounts(table, column string) (map[string]int, error) {
	sqlStr, args, err := psql.Select(fmt.Sprintf("strftime('%%Y-%%m', %s) AS ym", column), "COUNT(*) AS n").
		From(table).
		GroupBy("ym").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for %s month counts: %w", table, err)
	}
	var rows []struct {
		Ym string
		N  int
	}
	if err := r.DB.Raw(sqlStr, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to compute %s month counts: %w", table, err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Ym] = row.N
	}
	return counts, nil
}

// monthWindow returns the last twelve calendar months, oldest first, ending
// with the month containing now.
func monthWindow(now time.Time) []time.Time {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -11, 0)
	months := make([]time.Time, 12)
	for i := range months {
		months[i] = start.AddDate(0, i, 0)
	}
	return months
}
