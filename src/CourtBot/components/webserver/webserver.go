package webserver

import (
	"context"
	"net/http"

	"github.com/example/courtbot/src/types"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Store is the read surface exposed over the admin API.
type Store interface {
	FindOrInsertGuildState(ctx context.Context, guildID string) (*types.GuildState, error)
}

// New builds the read-only admin API: guild lawsuit and prison state behind
// JWT bearer auth.
func New(secret []byte, store Store) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery(), cors.Default())
	attachRoutes(g, secret, store)
	return g
}

func attachRoutes(g *gin.Engine, secret []byte, store Store) {
	g.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := g.Group("/v1", RequireJWT(secret))
	v1.GET("/guilds/:id/lawsuits", listLawsuits(store))
	v1.GET("/guilds/:id/prison", listPrison(store))
}

type lawsuitView struct {
	ID              string `json:"id"`
	Plaintiff       string `json:"plaintiff"`
	Accused         string `json:"accused"`
	Judge           string `json:"judge"`
	PlaintiffLawyer string `json:"plaintiffLawyer,omitempty"`
	AccusedLawyer   string `json:"accusedLawyer,omitempty"`
	Reason          string `json:"reason"`
	Verdict         string `json:"verdict,omitempty"`
	CourtRoom       string `json:"courtRoom"`
	Active          bool   `json:"active"`
}

func listLawsuits(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := store.FindOrInsertGuildState(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"err": "store unavailable"})
			return
		}

		views := make([]lawsuitView, 0, len(state.Lawsuits))
		for _, l := range state.Lawsuits {
			views = append(views, lawsuitView{
				ID:              l.ID,
				Plaintiff:       l.Plaintiff,
				Accused:         l.Accused,
				Judge:           l.Judge,
				PlaintiffLawyer: l.PlaintiffLawyer,
				AccusedLawyer:   l.AccusedLawyer,
				Reason:          l.Reason,
				Verdict:         l.Verdict,
				CourtRoom:       l.CourtRoom,
				Active:          l.Active(),
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"guild":         state.GuildID,
			"courtCategory": state.CourtCategoryID,
			"lawsuits":      views,
		})
	}
}

func listPrison(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := store.FindOrInsertGuildState(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"err": "store unavailable"})
			return
		}

		users := make([]string, 0, len(state.PrisonEntries))
		for _, e := range state.PrisonEntries {
			users = append(users, e.UserID)
		}

		c.JSON(http.StatusOK, gin.H{
			"guild":      state.GuildID,
			"prisonRole": state.PrisonRoleID,
			"confined":   users,
		})
	}
}
