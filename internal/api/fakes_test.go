package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"smsrelay/internal/auth"
	"smsrelay/internal/fanout"
	"smsrelay/internal/model"
	"smsrelay/internal/recovery"
	"smsrelay/internal/repo"
	"smsrelay/internal/service"
)

// In-memory repo fakes backing a real handler stack, so tests exercise
// the full route -> middleware -> service path over HTTP.

type fakeJobRepo struct {
	mu   sync.Mutex
	seq  int64
	jobs map[int64]*model.Job
}

var _ repo.JobRepository = (*fakeJobRepo)(nil)

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[int64]*model.Job)}
}

func (f *fakeJobRepo) Insert(ctx context.Context, phone, message string) (int64, error) {
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
	f.mu.Lock()
	defer f.mu.Unlock()

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

func (f *fakeJobRepo) get(id int64) (model.Job, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	j, ok := f.jobs[id]
	if !ok {
		return model.Job{}, false
	}
	return *j, true
}

type fakeOtpRepo struct {
	mu   sync.Mutex
	seq  int64
	recs []*model.OtpRecord
}

var _ repo.OtpRepository = (*fakeOtpRepo)(nil)

func newFakeOtpRepo() *fakeOtpRepo {
	return &fakeOtpRepo{}
}

func (f *fakeOtpRepo) Insert(ctx context.Context, phone, code string, expiresAt time.Time) (int64, error) {
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

// latestCode returns the newest plain numeric code issued for phone.
func (f *fakeOtpRepo) latestCode(phone string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	code := ""
	var newest time.Time
	for _, r := range f.recs {
		if r.Phone != phone || strings.HasPrefix(r.Code, model.ResetTokenPrefix) {
			continue
		}
		if code == "" || r.CreatedAt.After(newest) {
			code = r.Code
			newest = r.CreatedAt
		}
	}
	return code
}

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int64
	users map[string]*model.User
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

type fakeBillRepo struct {
	mu    sync.Mutex
	bills []model.Bill
}

var _ repo.BillRepository = (*fakeBillRepo)(nil)

func (f *fakeBillRepo) List(ctx context.Context, flt repo.BillFilter) ([]model.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.Bill
	for _, b := range f.bills {
		if flt.Phone != "" && b.Phone != flt.Phone {
			continue
		}
		if flt.Month != "" && b.Month != flt.Month {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBillRepo) GetByID(ctx context.Context, id int64) (*model.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, b := range f.bills {
		if b.ID == id {
			cp := b
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeBillRepo) seed(b model.Bill) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bills = append(f.bills, b)
}

// testEnv wires real services over the fakes behind the full router.
type testEnv struct {
	jobs    *fakeJobRepo
	otps    *fakeOtpRepo
	users   *fakeUserRepo
	bills   *fakeBillRepo
	monitor *recovery.Monitor
	tokens  *auth.JWTManager
	srv     *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	jobs := newFakeJobRepo()
	otps := newFakeOtpRepo()
	users := newFakeUserRepo()
	bills := &fakeBillRepo{}

	tokens := auth.NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour)

	queue := service.NewQueueService(jobs)
	otp := service.NewOtpService(otps, users, queue)
	authSvc := service.NewAuthService(users, tokens)

	monitor, err := recovery.New(time.Hour, queue)
	if err != nil {
		t.Fatalf("recovery.New() error: %v", err)
	}
	t.Cleanup(func() { monitor.Stop() })

	h := NewHandler(queue, otp, authSvc, bills, monitor, fanout.NewHub(), tokens)

	srv := httptest.NewServer(Router(h))
	t.Cleanup(srv.Close)

	return &testEnv{
		jobs:    jobs,
		otps:    otps,
		users:   users,
		bills:   bills,
		monitor: monitor,
		tokens:  tokens,
		srv:     srv,
	}
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()

	token, err := e.tokens.GenerateToken(1, "0900000001", model.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	return token
}

func (e *testEnv) userToken(t *testing.T, phone string) string {
	t.Helper()

	token, err := e.tokens.GenerateToken(2, phone, model.RoleUser)
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	return token
}

// seedUser stores an account with a real bcrypt hash for password.
func (e *testEnv) seedUser(t *testing.T, phone, password, role string) {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt hash failed: %v", err)
	}
	e.users.seed(model.User{Phone: phone, Password: string(hashed), Name: "Test User", Role: role})
}

// do performs an HTTP request against the test server and decodes the JSON
// body, when there is one, into a generic map.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, rdr)
	if err != nil {
		t.Fatalf("NewRequest() error: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	if len(raw) == 0 {
		return resp.StatusCode, nil
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal response %q: %v", raw, err)
	}
	return resp.StatusCode, decoded
}
