package liga

import "fantasy_go/internal/domain"

// Wire DTOs for the manager API (Boundary Layer). Monetary values arrive as
// JSON numbers; they are carried as int64 game-currency units.

type envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

type userDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type financesDTO struct {
	TeamID int64 `json:"team_id"`
	Cash   int64 `json:"cash"`
}

type rosterEntryDTO struct {
	ID     int64 `json:"id"`
	Player struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"player"`
	MarketValue int64 `json:"market_value"`
	ClausePrice int64 `json:"clause"`
}

type teamDTO struct {
	ID         int64            `json:"id"`
	AssetValue int64            `json:"asset_value"`
	Roster     []rosterEntryDTO `json:"roster"`
}

func (t *teamDTO) toDomain() *domain.TeamData {
	td := &domain.TeamData{
		TeamID:     t.ID,
		AssetValue: t.AssetValue,
		Roster:     make([]domain.RosterEntry, 0, len(t.Roster)),
	}
	for _, r := range t.Roster {
		td.Roster = append(td.Roster, domain.RosterEntry{
			EntryID:     r.ID,
			PlayerID:    r.Player.ID,
			PlayerName:  r.Player.Name,
			MarketValue: r.MarketValue,
			ClausePrice: r.ClausePrice,
		})
	}
	return td
}

type rankingEntryDTO struct {
	TeamID   int64  `json:"team_id"`
	UserID   int64  `json:"user_id"`
	TeamName string `json:"team_name"`
	Position int    `json:"position"`
	Points   int    `json:"points"`
}

func (r *rankingEntryDTO) toDomain() domain.RankingEntry {
	return domain.RankingEntry{
		TeamID:   r.TeamID,
		UserID:   r.UserID,
		TeamName: r.TeamName,
		Position: r.Position,
		Points:   r.Points,
	}
}

type offerDTO struct {
	ID           int64  `json:"id"`
	Amount       int64  `json:"amount"`
	BidderTeamID int64  `json:"bidder_team_id"`
	Status       string `json:"status"`
}

func (o *offerDTO) toDomain() domain.RemoteOffer {
	return domain.RemoteOffer{
		OfferID:      o.ID,
		Amount:       o.Amount,
		BidderTeamID: o.BidderTeamID,
		Status:       o.Status,
	}
}

type marketEntryDTO struct {
	ID     int64 `json:"id"`
	Player struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"player"`
	OwnerTeamID int64     `json:"owner_team_id"`
	Price       int64     `json:"price"`
	Kind        string    `json:"kind"` // "sale" | "clause"
	UserOffer   *offerDTO `json:"user_offer"`
}

func (m *marketEntryDTO) toDomain() *domain.MarketEntry {
	entry := &domain.MarketEntry{
		ListingID:   m.ID,
		PlayerID:    m.Player.ID,
		PlayerName:  m.Player.Name,
		OwnerTeamID: m.OwnerTeamID,
		AskingPrice: m.Price,
		Kind:        domain.ListingSale,
	}
	if m.Kind == "clause" {
		entry.Kind = domain.ListingClause
	}
	if m.UserOffer != nil {
		ro := m.UserOffer.toDomain()
		entry.UserOffer = &ro
	}
	return entry
}

// Request bodies

type placeBidRequest struct {
	Amount int64 `json:"amount"`
}

type modifyBidRequest struct {
	Amount int64 `json:"amount"`
}

type listPlayerRequest struct {
	TeamEntryID int64 `json:"team_entry_id"`
	Price       int64 `json:"price"`
}

// Response payloads

type offerIDResponse struct {
	ID int64 `json:"id"`
}

type listingIDResponse struct {
	ID int64 `json:"id"`
}
