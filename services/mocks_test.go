package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/StephenCStudy/BX-clan-Backend/models"
	"github.com/StephenCStudy/BX-clan-Backend/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingSink запоминает опубликованные события.
type recordingSink struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	Topic   string
	Type    string
	Payload interface{}
}

func (s *recordingSink) Publish(topic, eventType string, payload interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, recordedEvent{Topic: topic, Type: eventType, Payload: payload})
}

func (s *recordingSink) byType(eventType string) []recordedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []recordedEvent
	for _, e := range s.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// ---- registrations ----

type fakeRegistrationRepo struct {
	mu     sync.Mutex
	items  map[int]*models.Registration
	nextID int

	// Заявки, чей Claim уходит конкурирующему прогону.
	claimLostFor map[int]bool
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{
		items:        map[int]*models.Registration{},
		nextID:       1,
		claimLostFor: map[int]bool{},
	}
}

func (r *fakeRegistrationRepo) seed(newsID, userID int) *models.Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg := &models.Registration{
		ID:        r.nextID,
		UserID:    userID,
		NewsID:    &newsID,
		Status:    models.RegistrationPending,
		CreatedAt: time.Now().Add(time.Duration(r.nextID) * time.Millisecond),
	}
	r.items[reg.ID] = reg
	r.nextID++
	return reg
}

func (r *fakeRegistrationRepo) Create(_ context.Context, reg *models.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.UserID == reg.UserID && existing.NewsID != nil && reg.NewsID != nil && *existing.NewsID == *reg.NewsID {
			return repositories.ErrRegistrationConflict
		}
	}
	reg.ID = r.nextID
	reg.CreatedAt = time.Now()
	r.items[reg.ID] = reg
	r.nextID++
	return nil
}

func (r *fakeRegistrationRepo) GetByID(_ context.Context, id int) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrRegistrationNotFound
	}
	return reg, nil
}

func (r *fakeRegistrationRepo) FindByUserAndNews(_ context.Context, userID, newsID int) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.items {
		if reg.UserID == userID && reg.NewsID != nil && *reg.NewsID == newsID {
			return reg, nil
		}
	}
	return nil, repositories.ErrRegistrationNotFound
}

func (r *fakeRegistrationRepo) ListByUser(_ context.Context, userID int) ([]*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Registration
	for _, reg := range r.items {
		if reg.UserID == userID {
			out = append(out, reg)
		}
	}
	return out, nil
}

func (r *fakeRegistrationRepo) ListByNews(_ context.Context, newsID int) ([]*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Registration
	for _, reg := range r.items {
		if reg.NewsID != nil && *reg.NewsID == newsID {
			out = append(out, reg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeRegistrationRepo) ListEligible(ctx context.Context, newsID int) ([]*models.Registration, error) {
	all, _ := r.ListByNews(ctx, newsID)
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Registration
	for _, reg := range all {
		if reg.Status == models.RegistrationPending && reg.RoomID == nil {
			out = append(out, reg)
		}
	}
	return out, nil
}

func (r *fakeRegistrationRepo) Claim(_ context.Context, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claimLostFor[id] {
		return false, nil
	}
	reg, ok := r.items[id]
	if !ok || reg.Status != models.RegistrationPending || reg.RoomID != nil {
		return false, nil
	}
	reg.Status = models.RegistrationAssigned
	return true, nil
}

func (r *fakeRegistrationRepo) Release(_ context.Context, ids []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if reg, ok := r.items[id]; ok && reg.Status == models.RegistrationAssigned && reg.RoomID == nil {
			reg.Status = models.RegistrationPending
		}
	}
	return nil
}

func (r *fakeRegistrationRepo) AssignRoom(_ context.Context, ids []int, roomID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if reg, ok := r.items[id]; ok {
			rid := roomID
			reg.RoomID = &rid
		}
	}
	return nil
}

func (r *fakeRegistrationRepo) UpdateStatus(_ context.Context, id int, status models.RegistrationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.items[id]
	if !ok {
		return repositories.ErrRegistrationNotFound
	}
	reg.Status = status
	return nil
}

func (r *fakeRegistrationRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repositories.ErrRegistrationNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeRegistrationRepo) ResetAssignments(_ context.Context, newsID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, reg := range r.items {
		if reg.NewsID != nil && *reg.NewsID == newsID && reg.Status == models.RegistrationAssigned {
			reg.Status = models.RegistrationPending
			reg.RoomID = nil
			count++
		}
	}
	return count, nil
}

// ---- news ----

type fakeNewsRepo struct {
	mu     sync.Mutex
	items  map[int]*models.News
	nextID int
}

func newFakeNewsRepo() *fakeNewsRepo {
	return &fakeNewsRepo{items: map[int]*models.News{}, nextID: 1}
}

func (r *fakeNewsRepo) seed(title string, newsType models.NewsType) *models.News {
	r.mu.Lock()
	defer r.mu.Unlock()
	news := &models.News{ID: r.nextID, Title: title, Type: newsType, CreatedBy: 1, CreatedAt: time.Now()}
	r.items[news.ID] = news
	r.nextID++
	return news
}

func (r *fakeNewsRepo) Create(_ context.Context, news *models.News) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	news.ID = r.nextID
	news.CreatedAt = time.Now()
	r.items[news.ID] = news
	r.nextID++
	return nil
}

func (r *fakeNewsRepo) GetByID(_ context.Context, id int) (*models.News, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	news, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrNewsNotFound
	}
	return news, nil
}

func (r *fakeNewsRepo) List(_ context.Context, _ repositories.NewsFilter) ([]*models.News, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.News, 0, len(r.items))
	for _, n := range r.items {
		out = append(out, n)
	}
	return out, nil
}

func (r *fakeNewsRepo) Count(_ context.Context, _ repositories.NewsFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items), nil
}

func (r *fakeNewsRepo) Update(_ context.Context, news *models.News) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[news.ID]; !ok {
		return repositories.ErrNewsNotFound
	}
	r.items[news.ID] = news
	return nil
}

func (r *fakeNewsRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repositories.ErrNewsNotFound
	}
	delete(r.items, id)
	return nil
}

// ---- rooms ----

type fakeRoomRepo struct {
	mu     sync.Mutex
	items  map[int]*models.Room
	nextID int
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{items: map[int]*models.Room{}, nextID: 1}
}

func (r *fakeRoomRepo) seed(room *models.Room) *models.Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	room.ID = r.nextID
	room.CreatedAt = time.Now()
	if room.MaxPlayers == 0 {
		room.MaxPlayers = models.RoomMaxPlayers
	}
	r.items[room.ID] = room
	r.nextID++
	return room
}

func (r *fakeRoomRepo) Create(_ context.Context, room *models.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room.ID = r.nextID
	room.CreatedAt = time.Now()
	r.items[room.ID] = room
	r.nextID++
	return nil
}

func (r *fakeRoomRepo) GetByID(_ context.Context, id int) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrRoomNotFound
	}
	return room, nil
}

func (r *fakeRoomRepo) List(_ context.Context, _ repositories.RoomFilter) ([]*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Room, 0, len(r.items))
	for _, room := range r.items {
		out = append(out, room)
	}
	return out, nil
}

func (r *fakeRoomRepo) Count(_ context.Context, _ repositories.RoomFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items), nil
}

func (r *fakeRoomRepo) ListByNews(_ context.Context, newsID int) ([]*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Room
	for _, room := range r.items {
		if room.NewsID != nil && *room.NewsID == newsID {
			out = append(out, room)
		}
	}
	return out, nil
}

func (r *fakeRoomRepo) CountByNews(ctx context.Context, newsID int) (int, error) {
	rooms, _ := r.ListByNews(ctx, newsID)
	return len(rooms), nil
}

func (r *fakeRoomRepo) Update(_ context.Context, room *models.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[room.ID]; !ok {
		return repositories.ErrRoomNotFound
	}
	r.items[room.ID] = room
	return nil
}

func (r *fakeRoomRepo) UpdateSides(_ context.Context, id int, side1, side2 []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.items[id]
	if !ok {
		return repositories.ErrRoomNotFound
	}
	room.Side1 = side1
	room.Side2 = side2
	return nil
}

func (r *fakeRoomRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repositories.ErrRoomNotFound
	}
	delete(r.items, id)
	return nil
}

// ---- users ----

type fakeUserRepo struct {
	mu    sync.Mutex
	items map[int]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{items: map[int]*models.User{}}
}

func (r *fakeUserRepo) seed(id int, username string) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	user := &models.User{ID: id, Username: username, Role: models.RoleMember}
	r.items[id] = user
	return user
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = len(r.items) + 1
	r.items[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.items {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetByIDs(_ context.Context, ids []int64) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if user, ok := r.items[int(id)]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	r.items[user.ID] = user
	return nil
}

// ---- notifications ----

type fakeNotificationRepo struct {
	mu     sync.Mutex
	items  []*models.Notification
	nextID int
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{nextID: 1}
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = r.nextID
	n.CreatedAt = time.Now()
	r.nextID++
	r.items = append(r.items, n)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(_ context.Context, userID int, unreadOnly bool) ([]*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Notification
	for _, n := range r.items {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, userID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return repositories.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) Delete(_ context.Context, id, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.items {
		if n.ID == id && n.UserID == userID {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotificationNotFound
}

// ---- teams ----

type fakeTeamRepo struct {
	mu      sync.Mutex
	items   map[int]*models.Team
	members map[int][]models.TeamMember
	nextID  int

	failWinFor  int // ID команды, для которой RecordWin возвращает ошибку
	failLossFor int
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{items: map[int]*models.Team{}, members: map[int][]models.TeamMember{}, nextID: 1}
}

func (r *fakeTeamRepo) seed(name string, captainID int) *models.Team {
	r.mu.Lock()
	defer r.mu.Unlock()
	team := &models.Team{
		ID:               r.nextID,
		Name:             name,
		CaptainID:        captainID,
		CreatedBy:        captainID,
		TournamentStatus: models.TeamRegistered,
	}
	r.items[team.ID] = team
	r.members[team.ID] = []models.TeamMember{{UserID: captainID, Role: models.MemberCaptain}}
	r.nextID++
	return team
}

func (r *fakeTeamRepo) Create(_ context.Context, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Name == team.Name {
			return repositories.ErrTeamNameConflict
		}
	}
	team.ID = r.nextID
	team.CreatedAt = time.Now()
	captain := models.TeamMember{UserID: team.CaptainID, Role: models.MemberCaptain, JoinedAt: time.Now()}
	team.Members = []models.TeamMember{captain}
	r.items[team.ID] = team
	r.members[team.ID] = []models.TeamMember{captain}
	r.nextID++
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	team.Members = r.members[id]
	return team, nil
}

func (r *fakeTeamRepo) List(_ context.Context, _ repositories.TeamFilter) ([]*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Team, 0, len(r.items))
	for _, team := range r.items {
		out = append(out, team)
	}
	return out, nil
}

func (r *fakeTeamRepo) Count(_ context.Context, _ repositories.TeamFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items), nil
}

func (r *fakeTeamRepo) Update(_ context.Context, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[team.ID]; !ok {
		return repositories.ErrTeamNotFound
	}
	r.items[team.ID] = team
	return nil
}

func (r *fakeTeamRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.items, id)
	delete(r.members, id)
	return nil
}

func (r *fakeTeamRepo) AddMember(_ context.Context, teamID int, member *models.TeamMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members[teamID] {
		if m.UserID == member.UserID {
			return repositories.ErrTeamMemberConflict
		}
	}
	member.JoinedAt = time.Now()
	r.members[teamID] = append(r.members[teamID], *member)
	return nil
}

func (r *fakeTeamRepo) RemoveMember(_ context.Context, teamID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := r.members[teamID]
	for i, m := range members {
		if m.UserID == userID {
			r.members[teamID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return repositories.ErrTeamMemberNotFound
}

func (r *fakeTeamRepo) GetMembers(_ context.Context, teamID int) ([]models.TeamMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members[teamID], nil
}

func (r *fakeTeamRepo) CountMembers(_ context.Context, teamID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members[teamID]), nil
}

func (r *fakeTeamRepo) RecordWin(_ context.Context, teamID int, status models.TeamTournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if teamID == r.failWinFor {
		return repositories.ErrTeamNotFound
	}
	team, ok := r.items[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.MatchesWon++
	team.TournamentStatus = status
	return nil
}

func (r *fakeTeamRepo) RecordLoss(_ context.Context, teamID int, status models.TeamTournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if teamID == r.failLossFor {
		return repositories.ErrTeamNotFound
	}
	team, ok := r.items[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.MatchesLost++
	team.TournamentStatus = status
	return nil
}

func (r *fakeTeamRepo) SetTournament(_ context.Context, teamID int, tournamentID *int, status models.TeamTournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.items[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.TournamentID = tournamentID
	team.TournamentStatus = status
	return nil
}

func (r *fakeTeamRepo) SetTournamentStatus(_ context.Context, teamID int, status models.TeamTournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.items[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.TournamentStatus = status
	return nil
}

func (r *fakeTeamRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Team
	for _, team := range r.items {
		if team.TournamentID != nil && *team.TournamentID == tournamentID {
			out = append(out, team)
		}
	}
	return out, nil
}

func (r *fakeTeamRepo) UpdateLogoKey(_ context.Context, teamID int, logoKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.items[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.LogoKey = &logoKey
	return nil
}

// ---- matches ----

type fakeMatchRepo struct {
	mu     sync.Mutex
	items  map[int]*models.Match
	nextID int
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{items: map[int]*models.Match{}, nextID: 1}
}

func (r *fakeMatchRepo) seed(match *models.Match) *models.Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	match.ID = r.nextID
	match.CreatedAt = time.Now()
	r.items[match.ID] = match
	r.nextID++
	return match
}

func (r *fakeMatchRepo) Create(_ context.Context, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match.ID = r.nextID
	match.CreatedAt = time.Now()
	r.items[match.ID] = match
	r.nextID++
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return match, nil
}

func (r *fakeMatchRepo) ListByTournament(_ context.Context, tournamentID int, filter repositories.MatchFilter) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Match
	for _, match := range r.items {
		if match.TournamentID != tournamentID {
			continue
		}
		if filter.Round != nil && match.Round != *filter.Round {
			continue
		}
		if filter.Status != nil && match.Status != *filter.Status {
			continue
		}
		out = append(out, match)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchNumber < out[j].MatchNumber })
	return out, nil
}

func (r *fakeMatchRepo) FindByPair(_ context.Context, tournamentID, round, teamAID, teamBID int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, match := range r.items {
		if match.TournamentID != tournamentID || match.Round != round {
			continue
		}
		if (match.Team1ID == teamAID && match.Team2ID == teamBID) ||
			(match.Team1ID == teamBID && match.Team2ID == teamAID) {
			return match, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) AttachRoom(_ context.Context, matchID, roomID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.items[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.RoomID = &roomID
	if match.StartedAt == nil {
		now := time.Now()
		match.StartedAt = &now
	}
	return nil
}

func (r *fakeMatchRepo) Complete(_ context.Context, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[match.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	r.items[match.ID] = match
	return nil
}

func (r *fakeMatchRepo) CountByRound(_ context.Context, tournamentID, round int) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	completed, total := 0, 0
	for _, match := range r.items {
		if match.TournamentID != tournamentID || match.Round != round {
			continue
		}
		if match.Status == models.MatchCancelled {
			continue
		}
		total++
		if match.Status == models.MatchCompleted {
			completed++
		}
	}
	return completed, total, nil
}

func (r *fakeMatchRepo) DeleteByTournament(_ context.Context, tournamentID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, match := range r.items {
		if match.TournamentID == tournamentID {
			delete(r.items, id)
		}
	}
	return nil
}

// ---- tournaments ----

type fakeTournamentRepo struct {
	mu      sync.Mutex
	items   map[int]*models.Tournament
	winners map[int]map[int][]int // tournamentID -> round -> teamIDs
	nextID  int
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{
		items:   map[int]*models.Tournament{},
		winners: map[int]map[int][]int{},
		nextID:  1,
	}
}

func (r *fakeTournamentRepo) seed(t *models.Tournament) *models.Tournament {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.nextID
	t.CreatedAt = time.Now()
	r.items[t.ID] = t
	r.nextID++
	return t
}

func (r *fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.nextID
	t.CreatedAt = time.Now()
	r.items[t.ID] = t
	r.nextID++
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return t, nil
}

func (r *fakeTournamentRepo) List(_ context.Context, _ repositories.TournamentFilter) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Tournament, 0, len(r.items))
	for _, t := range r.items {
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeTournamentRepo) Count(_ context.Context, _ repositories.TournamentFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items), nil
}

func (r *fakeTournamentRepo) Update(_ context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	r.items[t.ID] = t
	return nil
}

func (r *fakeTournamentRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeTournamentRepo) UpdateStatus(_ context.Context, id int, status models.TournamentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *fakeTournamentRepo) SetCurrentRound(_ context.Context, id, round int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.CurrentRound = round
	return nil
}

func (r *fakeTournamentRepo) SetChampion(_ context.Context, id, championID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.ChampionID = &championID
	t.Status = models.TournamentCompleted
	return nil
}

func (r *fakeTournamentRepo) UpsertRoundWinners(_ context.Context, tournamentID, round int, teamIDs []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.winners[tournamentID]; !ok {
		r.winners[tournamentID] = map[int][]int{}
	}
	r.winners[tournamentID][round] = append([]int{}, teamIDs...)
	return nil
}

func (r *fakeTournamentRepo) GetRoundWinners(_ context.Context, tournamentID int) ([]models.RoundWinners, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rounds := r.winners[tournamentID]
	keys := make([]int, 0, len(rounds))
	for round := range rounds {
		keys = append(keys, round)
	}
	sort.Ints(keys)
	out := make([]models.RoundWinners, 0, len(keys))
	for _, round := range keys {
		out = append(out, models.RoundWinners{Round: round, TeamIDs: rounds[round]})
	}
	return out, nil
}

// ---- invites ----

type fakeInviteRepo struct {
	mu     sync.Mutex
	items  map[int]*models.RoomInvite
	nextID int
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{items: map[int]*models.RoomInvite{}, nextID: 1}
}

func (r *fakeInviteRepo) Create(_ context.Context, invite *models.RoomInvite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.RoomID == invite.RoomID && existing.UserID == invite.UserID && existing.Status == models.InvitePending {
			return repositories.ErrInviteConflict
		}
	}
	invite.ID = r.nextID
	invite.CreatedAt = time.Now()
	r.items[invite.ID] = invite
	r.nextID++
	return nil
}

func (r *fakeInviteRepo) GetByID(_ context.Context, id int) (*models.RoomInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	invite, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrInviteNotFound
	}
	return invite, nil
}

func (r *fakeInviteRepo) FindPending(_ context.Context, roomID, userID int) (*models.RoomInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, invite := range r.items {
		if invite.RoomID == roomID && invite.UserID == userID && invite.Status == models.InvitePending {
			return invite, nil
		}
	}
	return nil, repositories.ErrInviteNotFound
}

func (r *fakeInviteRepo) ListPendingByRoom(_ context.Context, roomID int) ([]*models.RoomInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RoomInvite
	for _, invite := range r.items {
		if invite.RoomID == roomID && invite.Status == models.InvitePending {
			out = append(out, invite)
		}
	}
	return out, nil
}

func (r *fakeInviteRepo) ListPendingByUser(_ context.Context, userID int) ([]*models.RoomInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RoomInvite
	for _, invite := range r.items {
		if invite.UserID == userID && invite.Status == models.InvitePending {
			out = append(out, invite)
		}
	}
	return out, nil
}

func (r *fakeInviteRepo) UpdateStatus(_ context.Context, id int, status models.InviteStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	invite, ok := r.items[id]
	if !ok {
		return repositories.ErrInviteNotFound
	}
	invite.Status = status
	return nil
}
