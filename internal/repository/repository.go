// Package repository holds the storage backends behind service.Repository.
package repository

import (
	"sort"

	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
)

// Driver names accepted by storage.driver
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

func sortGames(games []*models.Game) {
	sort.SliceStable(games, func(i, j int) bool {
		if !games[i].CommenceTime.Equal(games[j].CommenceTime) {
			return games[i].CommenceTime.Before(games[j].CommenceTime)
		}
		return games[i].ID < games[j].ID
	})
}
