// Package erasure implements the platform data-erasure hook: wipe a
// member's author snapshot from every guild's suggestion history while
// leaving bodies, votes and resolutions intact.
package erasure

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/communitykit/suggestbox/src/suggestions/store"
	"github.com/communitykit/suggestbox/src/suggestions/types"
)

type Service struct {
	store *store.Store
}

func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// EraseUser sweeps every allocated suggestion id in every guild and clears
// the author fields where they match userID. Returns how many records were
// anonymized.
func (s *Service) EraseUser(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("erasure: empty user id")
	}

	guilds, err := s.store.GuildIDs(ctx)
	if err != nil {
		return 0, err
	}

	cleared := 0
	for _, guildID := range guilds {
		err := s.store.ForEachID(ctx, guildID, func(id uint64) error {
			_, err := s.store.Mutate(ctx, guildID, id, func(rec *types.Suggestion) error {
				if rec.AuthorID != userID {
					return errSkip
				}
				rec.AuthorID = ""
				rec.AuthorName = ""
				rec.AuthorDiscriminator = ""
				return nil
			})
			if err == nil {
				cleared++
				return nil
			}
			if errors.Is(err, errSkip) || errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		})
		if err != nil {
			return cleared, fmt.Errorf("erasure: guild %s: %w", guildID, err)
		}
	}

	log.Printf("erasure: cleared %d records for user %s", cleared, userID)
	return cleared, nil
}

// errSkip aborts a Mutate without writing when the record is not the
// target's.
var errSkip = errors.New("skip")
