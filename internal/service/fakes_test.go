package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"smsrelay/internal/fanout"
	"smsrelay/internal/model"
	"smsrelay/internal/repo"
)

// In-memory fakes implementing the repo interfaces with the same
// semantics the postgres implementations promise, including the
// at-most-one-winner claim.

type fakeJobRepo struct {
	mu   sync.Mutex
	seq  int64
	jobs map[int64]*model.Job

	insertErr  error
	claimErr   error
	reportErr  error
	listErr    error
	reclaimErr error

	gotCutoff time.Time
}

var _ repo.JobRepository = (*fakeJobRepo)(nil)

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[int64]*model.Job)}
}

func (f *fakeJobRepo) Insert(ctx context.Context, phone, message string) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	f.jobs[f.seq] = &model.Job{
		ID:        f.seq,
		Phone:     phone,
		Message:   message,
		Status:    model.Pending,
		CreatedAt: time.Now(),
	}
	return f.seq, nil
}

func (f *fakeJobRepo) ClaimOldestPending(ctx context.Context) (*model.Job, error) {
	if f.claimErr != nil {
		return nil, f.claimErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var oldest *model.Job
	for _, j := range f.jobs {
		if j.Status != model.Pending {
			continue
		}
		if oldest == nil ||
			j.CreatedAt.Before(oldest.CreatedAt) ||
			(j.CreatedAt.Equal(oldest.CreatedAt) && j.ID < oldest.ID) {
			oldest = j
		}
	}
	if oldest == nil {
		return nil, nil
	}

	now := time.Now()
	oldest.Status = model.Processing
	oldest.ClaimedAt = &now

	cp := *oldest
	return &cp, nil
}

func (f *fakeJobRepo) Report(ctx context.Context, id int64, status model.Status, errMsg string) error {
	if f.reportErr != nil {
		return f.reportErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	j, ok := f.jobs[id]
	if !ok {
		return nil
	}

	now := time.Now()
	j.Status = status
	j.SentAt = &now
	j.ErrorMessage = nil
	if status == model.Failed && errMsg != "" {
		msg := errMsg
		j.ErrorMessage = &msg
	}
	return nil
}

func (f *fakeJobRepo) List(ctx context.Context, status model.Status, limit int) ([]model.Job, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.Job
	for _, j := range f.jobs {
		if status != "" && j.Status != status {
			continue
		}
		out = append(out, *j)
	}

	sort.Slice(out, func(i, k int) bool {
		if !out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].CreatedAt.After(out[k].CreatedAt)
		}
		return out[i].ID > out[k].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeJobRepo) ReclaimStuck(ctx context.Context, cutoff time.Time) (int64, error) {
	if f.reclaimErr != nil {
		return 0, f.reclaimErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.gotCutoff = cutoff

	var n int64
	for _, j := range f.jobs {
		if j.Status == model.Processing && j.ClaimedAt != nil && j.ClaimedAt.Before(cutoff) {
			j.Status = model.Pending
			j.ClaimedAt = nil
			n++
		}
	}
	return n, nil
}

// get returns a copy of a stored job for assertions.
func (f *fakeJobRepo) get(id int64) (model.Job, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	j, ok := f.jobs[id]
	if !ok {
		return model.Job{}, false
	}
	return *j, true
}

// seed inserts a job in an arbitrary state.
func (f *fakeJobRepo) seed(j model.Job) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if j.ID == 0 {
		f.seq++
		j.ID = f.seq
	} else if j.ID > f.seq {
		f.seq = j.ID
	}
	cp := j
	f.jobs[j.ID] = &cp
}

type fakeOtpRepo struct {
	mu   sync.Mutex
	seq  int64
	recs []*model.OtpRecord

	insertErr error
	findErr   error

	deleteUsedCalls int
}

var _ repo.OtpRepository = (*fakeOtpRepo)(nil)

func newFakeOtpRepo() *fakeOtpRepo {
	return &fakeOtpRepo{}
}

func (f *fakeOtpRepo) Insert(ctx context.Context, phone, code string, expiresAt time.Time) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	f.recs = append(f.recs, &model.OtpRecord{
		ID:        f.seq,
		Phone:     phone,
		Code:      code,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	})
	return f.seq, nil
}

func (f *fakeOtpRepo) LatestByPhone(ctx context.Context, phone string) (*model.OtpRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var latest *model.OtpRecord
	for _, r := range f.recs {
		if r.Phone != phone {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) ||
			(r.CreatedAt.Equal(latest.CreatedAt) && r.ID > latest.ID) {
			latest = r
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeOtpRepo) FindValid(ctx context.Context, phone, code string) (*model.OtpRecord, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	for _, r := range f.recs {
		if r.Phone == phone && r.Code == code && !r.Used && r.ExpiresAt.After(now) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeOtpRepo) MarkUsed(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.recs {
		if r.ID == id {
			r.Used = true
		}
	}
	return nil
}

func (f *fakeOtpRepo) DeleteUsed(ctx context.Context, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleteUsedCalls++

	kept := f.recs[:0]
	for _, r := range f.recs {
		if r.Phone == phone && r.Used {
			continue
		}
		kept = append(kept, r)
	}
	f.recs = kept
	return nil
}

func (f *fakeOtpRepo) seed(rec model.OtpRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if rec.ID == 0 {
		f.seq++
		rec.ID = f.seq
	} else if rec.ID > f.seq {
		f.seq = rec.ID
	}
	cp := rec
	f.recs = append(f.recs, &cp)
}

func (f *fakeOtpRepo) all() []model.OtpRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]model.OtpRecord, 0, len(f.recs))
	for _, r := range f.recs {
		out = append(out, *r)
	}
	return out
}

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int64
	users map[string]*model.User

	updatedHash string
}

var _ repo.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[phone]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, phone, hashedPassword, name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	f.users[phone] = &model.User{
		ID:       f.seq,
		Phone:    phone,
		Password: hashedPassword,
		Name:     name,
		Role:     model.RoleUser,
	}
	return f.seq, nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, phone, hashedPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updatedHash = hashedPassword
	if u, ok := f.users[phone]; ok {
		u.Password = hashedPassword
	}
	return nil
}

func (f *fakeUserRepo) seed(u model.User) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if u.ID == 0 {
		f.seq++
		u.ID = f.seq
	}
	cp := u
	f.users[u.Phone] = &cp
}

// recordingNotifier captures published fanout events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []eventCopy
}

type eventCopy struct {
	ID             int64
	Phone          string
	MessagePreview string
	Kind           string
}

func (n *recordingNotifier) Publish(ev fanout.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, eventCopy{
		ID:             ev.ID,
		Phone:          ev.Phone,
		MessagePreview: ev.MessagePreview,
		Kind:           ev.Kind,
	})
}

func (n *recordingNotifier) publishedEvents() []eventCopy {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]eventCopy(nil), n.events...)
}
