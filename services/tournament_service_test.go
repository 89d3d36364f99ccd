package services

import (
	"context"
	"testing"

	"github.com/StephenCStudy/BX-clan-Backend/models"
	"github.com/StephenCStudy/BX-clan-Backend/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tournamentFixture struct {
	service     TournamentService
	tournaments *fakeTournamentRepo
	matches     *fakeMatchRepo
	teams       *fakeTeamRepo
	sink        *recordingSink
}

func newTournamentFixture() *tournamentFixture {
	f := &tournamentFixture{
		tournaments: newFakeTournamentRepo(),
		matches:     newFakeMatchRepo(),
		teams:       newFakeTeamRepo(),
		sink:        &recordingSink{},
	}
	f.service = NewTournamentService(f.tournaments, f.matches, f.teams, f.sink, testLogger())
	return f
}

func (f *tournamentFixture) seedOngoing(round int) *models.Tournament {
	return f.tournaments.seed(&models.Tournament{
		Name: "Spring Cup", Status: models.TournamentOngoing,
		CurrentRound: round, MaxTeams: 8, TeamSize: 5, DefaultBestOf: 3,
	})
}

func (f *tournamentFixture) seedMatch(tournamentID, round, team1ID, team2ID int, status models.MatchStatus, winnerID *int) *models.Match {
	return f.matches.seed(&models.Match{
		TournamentID: tournamentID, Round: round,
		Team1ID: team1ID, Team2ID: team2ID,
		Status: status, WinnerID: winnerID, BestOf: 3,
	})
}

func winner(id int) *int { return &id }

func TestAdvanceRound_IncompleteRound(t *testing.T) {
	f := newTournamentFixture()
	tournament := f.seedOngoing(1)
	f.seedMatch(tournament.ID, 1, 1, 2, models.MatchCompleted, winner(1))
	f.seedMatch(tournament.ID, 1, 3, 4, models.MatchOngoing, nil)

	_, err := f.service.AdvanceRound(context.Background(), tournament.ID)
	assert.ErrorIs(t, err, ErrRoundNotComplete)
}

func TestAdvanceRound_EmptyRound(t *testing.T) {
	f := newTournamentFixture()
	tournament := f.seedOngoing(1)

	_, err := f.service.AdvanceRound(context.Background(), tournament.ID)
	assert.ErrorIs(t, err, ErrRoundNotComplete)
}

func TestAdvanceRound_NotOngoing(t *testing.T) {
	f := newTournamentFixture()
	tournament := f.tournaments.seed(&models.Tournament{Name: "Draft", Status: models.TournamentDraft})

	_, err := f.service.AdvanceRound(context.Background(), tournament.ID)
	assert.ErrorIs(t, err, ErrTournamentNotOngoing)
}

func TestAdvanceRound_OpensNextRound(t *testing.T) {
	f := newTournamentFixture()
	tournament := f.seedOngoing(1)
	f.seedMatch(tournament.ID, 1, 1, 2, models.MatchCompleted, winner(1))
	f.seedMatch(tournament.ID, 1, 3, 4, models.MatchCompleted, winner(4))

	result, err := f.service.AdvanceRound(context.Background(), tournament.ID)
	require.NoError(t, err)

	assert.False(t, result.Finished)
	assert.ElementsMatch(t, []int{1, 4}, result.Winners)
	assert.Equal(t, 2, result.Tournament.CurrentRound)

	stored, _ := f.tournaments.GetByID(context.Background(), tournament.ID)
	assert.Equal(t, 2, stored.CurrentRound)
	assert.Equal(t, models.TournamentOngoing, stored.Status)

	rounds, err := f.service.WinningTeams(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, 1, rounds[0].Round)
	assert.ElementsMatch(t, []int{1, 4}, rounds[0].TeamIDs)
}

func TestAdvanceRound_CancelledMatchesIgnored(t *testing.T) {
	f := newTournamentFixture()
	tournament := f.seedOngoing(1)
	f.seedMatch(tournament.ID, 1, 1, 2, models.MatchCompleted, winner(2))
	f.seedMatch(tournament.ID, 1, 3, 4, models.MatchCancelled, nil)
	f.seedMatch(tournament.ID, 1, 5, 6, models.MatchCompleted, winner(5))

	result, err := f.service.AdvanceRound(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{2, 5}, result.Winners)
}

func TestAdvanceRound_SingleWinnerFinishesTournament(t *testing.T) {
	f := newTournamentFixture()
	champion := f.teams.seed("Alpha", 1)
	tournament := f.seedOngoing(2)
	f.seedMatch(tournament.ID, 2, champion.ID, 2, models.MatchCompleted, winner(champion.ID))

	result, err := f.service.AdvanceRound(context.Background(), tournament.ID)
	require.NoError(t, err)

	assert.True(t, result.Finished)
	assert.Equal(t, []int{champion.ID}, result.Winners)

	stored, _ := f.tournaments.GetByID(context.Background(), tournament.ID)
	assert.Equal(t, models.TournamentCompleted, stored.Status)
	require.NotNil(t, stored.ChampionID)
	assert.Equal(t, champion.ID, *stored.ChampionID)

	team, _ := f.teams.GetByID(context.Background(), champion.ID)
	assert.Equal(t, models.TeamWinner, team.TournamentStatus)
}

func TestAdvanceRound_RepeatOverwritesWinners(t *testing.T) {
	f := newTournamentFixture()
	tournament := f.seedOngoing(1)
	f.seedMatch(tournament.ID, 1, 1, 2, models.MatchCompleted, winner(1))
	f.seedMatch(tournament.ID, 1, 3, 4, models.MatchCompleted, winner(3))

	_, err := f.service.AdvanceRound(context.Background(), tournament.ID)
	require.NoError(t, err)

	// Откат раунда и повторный вызов не плодят дубликатов победителей.
	require.NoError(t, f.tournaments.SetCurrentRound(context.Background(), tournament.ID, 1))
	_, err = f.service.AdvanceRound(context.Background(), tournament.ID)
	require.NoError(t, err)

	rounds, err := f.service.WinningTeams(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.ElementsMatch(t, []int{1, 3}, rounds[0].TeamIDs)
}

func TestPairableTeams_FirstRound(t *testing.T) {
	f := newTournamentFixture()
	tournament := f.seedOngoing(1)
	teamA := f.teams.seed("Alpha", 1)
	teamB := f.teams.seed("Bravo", 2)
	teamC := f.teams.seed("Charlie", 3)
	teamD := f.teams.seed("Delta", 4)
	for _, team := range []*models.Team{teamA, teamB, teamC, teamD} {
		require.NoError(t, f.teams.SetTournament(context.Background(), team.ID, &tournament.ID, models.TeamActive))
	}
	require.NoError(t, f.teams.SetTournamentStatus(context.Background(), teamD.ID, models.TeamEliminated))
	f.seedMatch(tournament.ID, 1, teamA.ID, teamB.ID, models.MatchOngoing, nil)

	pool, err := f.service.PairableTeams(context.Background(), tournament.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, pool.Round)
	assert.Len(t, pool.Pool, 3)
	require.Len(t, pool.Unpaired, 1)
	assert.Equal(t, teamC.ID, pool.Unpaired[0].ID)
}

func TestPairableTeams_LaterRoundUsesPreviousWinners(t *testing.T) {
	f := newTournamentFixture()
	tournament := f.seedOngoing(2)
	teamA := f.teams.seed("Alpha", 1)
	teamB := f.teams.seed("Bravo", 2)
	teamC := f.teams.seed("Charlie", 3)
	for _, team := range []*models.Team{teamA, teamB, teamC} {
		require.NoError(t, f.teams.SetTournament(context.Background(), team.ID, &tournament.ID, models.TeamActive))
	}
	require.NoError(t, f.tournaments.UpsertRoundWinners(context.Background(), tournament.ID, 1, []int{teamA.ID, teamC.ID}))

	pool, err := f.service.PairableTeams(context.Background(), tournament.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, pool.Round)
	ids := make([]int, 0, len(pool.Pool))
	for _, team := range pool.Pool {
		ids = append(ids, team.ID)
	}
	assert.ElementsMatch(t, []int{teamA.ID, teamC.ID}, ids)
	assert.Len(t, pool.Unpaired, 2)

	// Пара получила матч — из Unpaired обе команды уходят.
	f.seedMatch(tournament.ID, 2, teamA.ID, teamC.ID, models.MatchOngoing, nil)
	pool, err = f.service.PairableTeams(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Empty(t, pool.Unpaired)
}

func TestPairableTeams_NotOngoing(t *testing.T) {
	f := newTournamentFixture()
	tournament := f.tournaments.seed(&models.Tournament{Name: "Draft", Status: models.TournamentDraft})

	_, err := f.service.PairableTeams(context.Background(), tournament.ID)
	assert.ErrorIs(t, err, ErrTournamentNotOngoing)
}

func TestListMatches_RoundFilter(t *testing.T) {
	f := newTournamentFixture()
	tournament := f.seedOngoing(2)
	f.seedMatch(tournament.ID, 1, 1, 2, models.MatchCompleted, winner(1))
	f.seedMatch(tournament.ID, 1, 3, 4, models.MatchCompleted, winner(3))
	f.seedMatch(tournament.ID, 2, 1, 3, models.MatchOngoing, nil)

	all, err := f.service.ListMatches(context.Background(), tournament.ID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	round := 2
	second, err := f.service.ListMatches(context.Background(), tournament.ID, &round)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 2, second[0].Round)
}

func TestStartTournament(t *testing.T) {
	f := newTournamentFixture()
	tournament := f.tournaments.seed(&models.Tournament{
		Name: "Spring Cup", Status: models.TournamentRegistration, MaxTeams: 8, TeamSize: 5,
	})
	teamA := f.teams.seed("Alpha", 1)
	teamB := f.teams.seed("Bravo", 2)
	require.NoError(t, f.teams.SetTournament(context.Background(), teamA.ID, &tournament.ID, models.TeamRegistered))
	require.NoError(t, f.teams.SetTournament(context.Background(), teamB.ID, &tournament.ID, models.TeamRegistered))

	require.NoError(t, f.service.Start(context.Background(), tournament.ID))

	stored, _ := f.tournaments.GetByID(context.Background(), tournament.ID)
	assert.Equal(t, models.TournamentOngoing, stored.Status)
	assert.Equal(t, 1, stored.CurrentRound)

	team, _ := f.teams.GetByID(context.Background(), teamA.ID)
	assert.Equal(t, models.TeamActive, team.TournamentStatus)
}

func TestStartTournament_NeedsTwoTeams(t *testing.T) {
	f := newTournamentFixture()
	tournament := f.tournaments.seed(&models.Tournament{
		Name: "Lonely Cup", Status: models.TournamentRegistration, MaxTeams: 8,
	})
	team := f.teams.seed("Alpha", 1)
	require.NoError(t, f.teams.SetTournament(context.Background(), team.ID, &tournament.ID, models.TeamRegistered))

	err := f.service.Start(context.Background(), tournament.ID)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestCreateTournament_Validation(t *testing.T) {
	f := newTournamentFixture()

	_, err := f.service.Create(context.Background(), 1, CreateTournamentInput{Name: "  ", MaxTeams: 8})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = f.service.Create(context.Background(), 1, CreateTournamentInput{Name: "Cup", DefaultBestOf: 2, MaxTeams: 8})
	assert.ErrorIs(t, err, ErrValidationFailed)

	tournament, err := f.service.Create(context.Background(), 1, CreateTournamentInput{Name: "Cup", MaxTeams: 8})
	require.NoError(t, err)
	assert.Equal(t, models.TournamentDraft, tournament.Status)
	assert.Equal(t, 1, tournament.DefaultBestOf)
	assert.Equal(t, models.RoomSideSize, tournament.TeamSize)
}

func TestDeleteTournament_DetachesTeams(t *testing.T) {
	f := newTournamentFixture()
	tournament := f.tournaments.seed(&models.Tournament{
		Name: "Old Cup", Status: models.TournamentCompleted, MaxTeams: 8,
	})
	team := f.teams.seed("Alpha", 1)
	require.NoError(t, f.teams.SetTournament(context.Background(), team.ID, &tournament.ID, models.TeamEliminated))
	f.seedMatch(tournament.ID, 1, team.ID, 2, models.MatchCompleted, winner(team.ID))

	require.NoError(t, f.service.Delete(context.Background(), tournament.ID))

	detached, _ := f.teams.GetByID(context.Background(), team.ID)
	assert.Nil(t, detached.TournamentID)
	assert.Equal(t, models.TeamRegistered, detached.TournamentStatus)

	matches, _ := f.matches.ListByTournament(context.Background(), tournament.ID, repositories.MatchFilter{})
	assert.Empty(t, matches)
}
