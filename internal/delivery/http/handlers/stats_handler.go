package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/brickfoundation/referral-service/internal/delivery/http/dto/response"
	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/brickfoundation/referral-service/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// StatsHandler serves the read views. A store failure answers 200 with an
// empty payload marked degraded.
type StatsHandler struct {
	uc  usecase.StatsUsecase
	log *slog.Logger
}

func NewStatsHandler(uc usecase.StatsUsecase, log *slog.Logger) *StatsHandler {
	return &StatsHandler{uc: uc, log: log}
}

func (h *StatsHandler) Stats(c *gin.Context) {
	userID := c.Param("id")
	stats, err := h.uc.Stats(c.Request.Context(), userID)
	if err != nil {
		if !degrades(err) {
			writeError(c, err)
			return
		}
		h.degraded(c, "stats", err)
		c.JSON(http.StatusOK, emptyStats(userID))
		return
	}
	c.JSON(http.StatusOK, response.NewStatsResponse(stats))
}

func (h *StatsHandler) Tree(c *gin.Context) {
	depth := 0
	if raw := c.Query("depth"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, domain.ErrInvalidDepth)
			return
		}
		depth = d
	}

	tree, err := h.uc.Tree(c.Request.Context(), c.Param("id"), depth)
	if err != nil {
		if !degrades(err) {
			writeError(c, err)
			return
		}
		h.degraded(c, "tree", err)
		c.JSON(http.StatusOK, response.TreeResponse{Degraded: true})
		return
	}
	c.JSON(http.StatusOK, response.TreeResponse{Tree: tree})
}

func (h *StatsHandler) Leaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		limit = l
	}

	entries, err := h.uc.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		if !degrades(err) {
			writeError(c, err)
			return
		}
		h.degraded(c, "leaderboard", err)
		c.JSON(http.StatusOK, response.LeaderboardResponse{
			Entries:  []response.LeaderboardEntryResponse{},
			Degraded: true,
		})
		return
	}

	out := make([]response.LeaderboardEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, response.LeaderboardEntryResponse{
			Rank:               e.Rank,
			User:               e.Profile,
			ConfirmedReferrals: e.ConfirmedReferrals,
			TotalRewards:       e.TotalRewards,
		})
	}
	c.JSON(http.StatusOK, response.LeaderboardResponse{Entries: out})
}

func (h *StatsHandler) Tiers(c *gin.Context) {
	tiers, err := h.uc.Tiers(c.Request.Context())
	if err != nil {
		h.degraded(c, "tiers", err)
		c.JSON(http.StatusOK, response.TiersResponse{Tiers: []response.TierResponse{}, Degraded: true})
		return
	}
	out := make([]response.TierResponse, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, response.NewTierResponse(t))
	}
	c.JSON(http.StatusOK, response.TiersResponse{Tiers: out})
}

func (h *StatsHandler) degraded(c *gin.Context, view string, err error) {
	_ = c.Error(err)
	h.log.Warn("read view degraded",
		"view", view,
		"path", c.Request.URL.Path,
		"error", err,
	)
}

func emptyStats(userID string) response.StatsResponse {
	resp := response.NewStatsResponse(&domain.ReferralStats{
		UserID:          userID,
		RewardsPending:  decimal.Zero,
		RewardsApproved: decimal.Zero,
		RewardsPaid:     decimal.Zero,
		RewardsTotal:    decimal.Zero,
		Tier:            domain.TierResolution{Current: domain.BaseTier},
	})
	resp.Degraded = true
	return resp
}
