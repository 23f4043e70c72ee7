package nav

import (
	"errors"
	"testing"

	"github.com/vango-dev/navshell/pkg/routepath"
	"github.com/vango-dev/navshell/pkg/router"
)

func testTable(t *testing.T) *router.Table {
	t.Helper()
	table, err := router.Register(
		router.Definition{Path: "/", Name: "home", View: "HomeView"},
		router.Definition{Path: "/troubleshooting", Name: "troubleshooting", View: "TroubleshootingView"},
		router.Definition{Path: "/corrosionai", Name: "corrosion-ai", View: "CorrosionAIView"},
		router.Definition{Path: "/safetyadvisor", Name: "safety-advisor", View: "SafetyAdvisorView"},
		router.Definition{Path: "/vcra", Name: "vcra", View: "VCRAView"},
		router.Definition{Path: "/user/:id", Name: "user", View: "UserView"},
		router.Definition{Path: "/docs/*page", Name: "docs", View: "DocsView"},
	)
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	return table
}

func attached(t *testing.T, initial string) (*Resolver, *fakeSource) {
	t.Helper()
	src := newFakeSource(initial)
	r := New()
	if err := r.Attach(testTable(t), src); err != nil {
		t.Fatalf("Attach() error: %v", err)
	}
	return r, src
}

// recorder collects published snapshots.
type recorder struct {
	got []*ActiveRoute
}

func (rec *recorder) listen(ar *ActiveRoute) { rec.got = append(rec.got, ar) }

func (rec *recorder) names() []string {
	out := make([]string, len(rec.got))
	for i, ar := range rec.got {
		out[i] = ar.routeLabel()
	}
	return out
}

func TestAttachResolvesInitialLocation(t *testing.T) {
	r, _ := attached(t, "/user/42?tab=posts&tab=likes")

	if r.State() != StateAttached {
		t.Fatalf("State() = %v, want attached", r.State())
	}
	ar := r.Active()
	if ar == nil || ar.Name() != "user" {
		t.Fatalf("Active() = %+v, want user route", ar)
	}
	if ar.Param("id") != "42" {
		t.Errorf("id = %q, want 42", ar.Param("id"))
	}
	if got := ar.Query.Values("tab"); len(got) != 2 || got[0] != "posts" || got[1] != "likes" {
		t.Errorf("tab = %v, want [posts likes]", got)
	}
	if ar.View() != "UserView" {
		t.Errorf("View() = %v", ar.View())
	}
	if ar.Seq != 1 {
		t.Errorf("Seq = %d, want 1", ar.Seq)
	}
}

func TestAttachInitialNotFound(t *testing.T) {
	r, _ := attached(t, "/nowhere")
	if !r.Active().NotFound() {
		t.Error("expected not found")
	}
	if r.Active().Params == nil {
		t.Error("Params must not be nil")
	}
}

func TestAttachInvalidInitialLocation(t *testing.T) {
	r, _ := attached(t, "/../etc?x=1")
	ar := r.Active()
	if !ar.NotFound() {
		t.Error("invalid initial location should resolve to not found")
	}
	if ar.Path != "/../etc" || ar.Query.Get("x") != "1" || ar.Location != "/../etc?x=1" {
		t.Errorf("active = path %q, location %q", ar.Path, ar.Location)
	}
}

func TestAttachTwice(t *testing.T) {
	r, src := attached(t, "/")
	if err := r.Attach(testTable(t), src); !errors.Is(err, ErrAlreadyAttached) {
		t.Errorf("second Attach() error = %v, want ErrAlreadyAttached", err)
	}
}

func TestAttachNilArguments(t *testing.T) {
	if err := New().Attach(nil, newFakeSource("/")); err == nil {
		t.Error("Attach(nil table) should fail")
	}
	if err := New().Attach(testTable(t), nil); err == nil {
		t.Error("Attach(nil source) should fail")
	}
}

func TestOperationsBeforeAttach(t *testing.T) {
	r := New()

	if r.Active() != nil {
		t.Error("Active() before Attach should be nil")
	}
	if err := r.Navigate("/vcra"); !errors.Is(err, ErrNotAttached) {
		t.Errorf("Navigate() error = %v, want ErrNotAttached", err)
	}
	if _, err := r.Subscribe(func(*ActiveRoute) {}); !errors.Is(err, ErrNotAttached) {
		t.Errorf("Subscribe() error = %v, want ErrNotAttached", err)
	}
	if err := r.Detach(); !errors.Is(err, ErrNotAttached) {
		t.Errorf("Detach() error = %v, want ErrNotAttached", err)
	}
}

func TestFullNavigationCycle(t *testing.T) {
	r, src := attached(t, "/")
	rec := &recorder{}
	if _, err := r.Subscribe(rec.listen); err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}

	if err := r.Navigate("/troubleshooting"); err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if err := r.Navigate("/unknown/path"); err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}

	if len(rec.got) != 2 {
		t.Fatalf("got %d notifications, want 2: %v", len(rec.got), rec.names())
	}
	if rec.got[0].Name() != "troubleshooting" {
		t.Errorf("first = %q, want troubleshooting", rec.got[0].Name())
	}
	if !rec.got[1].NotFound() {
		t.Error("second notification should be not found")
	}
	if rec.got[1].Path != "/unknown/path" {
		t.Errorf("not found path = %q", rec.got[1].Path)
	}
	if rec.got[0].Seq != 2 || rec.got[1].Seq != 3 {
		t.Errorf("seqs = %d, %d, want 2, 3", rec.got[0].Seq, rec.got[1].Seq)
	}
	if len(src.pushes) != 2 || src.pushes[1] != "/unknown/path" {
		t.Errorf("pushes = %v", src.pushes)
	}
	if r.Active() != rec.got[1] {
		t.Error("Active() should be the last published snapshot")
	}
}

func TestNavigateReplace(t *testing.T) {
	r, src := attached(t, "/")

	if err := r.Navigate("/vcra", WithReplace()); err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if len(src.pushes) != 0 || len(src.replaces) != 1 {
		t.Errorf("pushes = %v, replaces = %v", src.pushes, src.replaces)
	}
	if len(src.entries) != 1 || src.entries[0] != "/vcra" {
		t.Errorf("entries = %v", src.entries)
	}
	if r.Active().Name() != "vcra" {
		t.Errorf("active = %q", r.Active().Name())
	}

	if err := r.Navigate("/", WithMode(ModePush)); err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if len(src.pushes) != 1 {
		t.Errorf("pushes = %v", src.pushes)
	}
}

func TestNavigateWithQuery(t *testing.T) {
	r, src := attached(t, "/")

	err := r.Navigate("/vcra?unit=c", WithQuery(routepath.Query{"mode": {"a", "b"}}))
	if err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}

	ar := r.Active()
	if ar.Query.Get("unit") != "c" || len(ar.Query.Values("mode")) != 2 {
		t.Errorf("query = %v", ar.Query)
	}
	if want := "/vcra?mode=a&mode=b&unit=c"; src.Location() != want || ar.Location != want {
		t.Errorf("location = %q / %q, want %q", src.Location(), ar.Location, want)
	}
}

func TestNavigateCanonicalizes(t *testing.T) {
	r, src := attached(t, "/")

	if err := r.Navigate("/docs//guides/./setup/"); err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if src.Location() != "/docs/guides/setup" {
		t.Errorf("location = %q", src.Location())
	}
	if r.Active().Param("page") != "guides/setup" {
		t.Errorf("page = %q", r.Active().Param("page"))
	}
}

func TestNavigateInvalidLocation(t *testing.T) {
	r, _ := attached(t, "/")
	rec := &recorder{}
	r.Subscribe(rec.listen)

	for _, loc := range []string{"vcra", "https://evil.example/", "//evil.example", "/a\\b", "/../x"} {
		if err := r.Navigate(loc); !errors.Is(err, ErrInvalidLocation) {
			t.Errorf("Navigate(%q) error = %v, want ErrInvalidLocation", loc, err)
		}
	}
	if len(rec.got) != 0 {
		t.Errorf("invalid navigations notified %d times", len(rec.got))
	}
	if r.Active().Name() != "home" {
		t.Error("active route changed after invalid navigation")
	}
}

func TestNavigateToCurrentLocationIsNoop(t *testing.T) {
	r, src := attached(t, "/vcra")
	rec := &recorder{}
	r.Subscribe(rec.listen)

	if err := r.Navigate("/vcra/"); err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if len(rec.got) != 0 || len(src.pushes) != 0 {
		t.Errorf("notifications = %d, pushes = %v; want none", len(rec.got), src.pushes)
	}
}

func TestNavigateSourceFailure(t *testing.T) {
	r, src := attached(t, "/")
	rec := &recorder{}
	r.Subscribe(rec.listen)

	boom := errors.New("history full")
	src.failWrite = boom

	if err := r.Navigate("/vcra"); !errors.Is(err, boom) {
		t.Errorf("Navigate() error = %v, want %v", err, boom)
	}
	if len(rec.got) != 0 || r.Active().Name() != "home" {
		t.Error("failed source update must not publish")
	}
}

func TestNavigateToName(t *testing.T) {
	r, src := attached(t, "/")
	rec := &recorder{}
	r.Subscribe(rec.listen)

	err := r.NavigateToName("user", router.Params{"id": "42"}, routepath.Query{"tab": {"posts"}})
	if err != nil {
		t.Fatalf("NavigateToName() error: %v", err)
	}
	if src.Location() != "/user/42?tab=posts" {
		t.Errorf("location = %q", src.Location())
	}
	if len(rec.got) != 1 || rec.got[0].Param("id") != "42" || rec.got[0].Query.Get("tab") != "posts" {
		t.Errorf("published = %+v", rec.got)
	}

	if err := r.NavigateToName("vcra", nil, nil, WithReplace()); err != nil {
		t.Fatalf("NavigateToName() error: %v", err)
	}
	if len(src.replaces) != 1 || src.replaces[0] != "/vcra" {
		t.Errorf("replaces = %v", src.replaces)
	}
}

func TestNavigateToNameDotParams(t *testing.T) {
	tests := []struct {
		name   string
		params router.Params
		want   string
		param  string
		value  string
	}{
		{"user", router.Params{"id": "."}, "/user/%2E", "id", "."},
		{"user", router.Params{"id": ".."}, "/user/%2E%2E", "id", ".."},
		{"docs", router.Params{"page": "a/../../.."}, "/docs/a/%2E%2E/%2E%2E/%2E%2E", "page", "a/../../.."},
	}

	for _, tt := range tests {
		r, src := attached(t, "/vcra")
		if err := r.NavigateToName(tt.name, tt.params, nil); err != nil {
			t.Errorf("NavigateToName(%q, %v) error: %v", tt.name, tt.params, err)
			continue
		}
		ar := r.Active()
		if ar.Name() != tt.name || ar.Param(tt.param) != tt.value {
			t.Errorf("NavigateToName(%q, %v) landed on %q with %s=%q", tt.name, tt.params, ar.routeLabel(), tt.param, ar.Param(tt.param))
		}
		if src.Location() != tt.want {
			t.Errorf("location = %q, want %q", src.Location(), tt.want)
		}
	}
}

func TestNavigateToNameErrorsLeaveActiveRoute(t *testing.T) {
	r, src := attached(t, "/vcra")
	rec := &recorder{}
	r.Subscribe(rec.listen)
	before := r.Active()

	tests := []struct {
		name    string
		params  router.Params
		wantErr error
	}{
		{"nope", nil, ErrUnknownRouteName},
		{"user", nil, router.ErrMissingParameter},
		{"user", router.Params{"id": ""}, router.ErrMissingParameter},
		{"user", router.Params{"id": "1", "extra": "2"}, router.ErrExtraParameter},
	}

	for _, tt := range tests {
		err := r.NavigateToName(tt.name, tt.params, nil)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("NavigateToName(%q, %v) error = %v, want %v", tt.name, tt.params, err, tt.wantErr)
		}
	}

	var unknown *UnknownRouteNameError
	if err := r.NavigateToName("nope", nil, nil); !errors.As(err, &unknown) || unknown.Name != "nope" {
		t.Errorf("expected *UnknownRouteNameError, got %v", err)
	}
	var missing *router.MissingParameterError
	if err := r.NavigateToName("user", nil, nil); !errors.As(err, &missing) || missing.Param != "id" {
		t.Errorf("expected *router.MissingParameterError, got %v", err)
	}

	if r.Active() != before {
		t.Error("active route changed after failed navigation")
	}
	if len(rec.got) != 0 || len(src.pushes) != 0 {
		t.Errorf("notifications = %d, pushes = %v", len(rec.got), src.pushes)
	}
}

func TestSubscribersNotifiedInOrder(t *testing.T) {
	r, _ := attached(t, "/")

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		r.Subscribe(func(*ActiveRoute) { order = append(order, i) })
	}

	r.Navigate("/vcra")
	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Errorf("order = %v, want [0 1 2]", order)
	}
}

func TestUnsubscribe(t *testing.T) {
	r, _ := attached(t, "/")
	a, b := &recorder{}, &recorder{}

	unsubA, _ := r.Subscribe(a.listen)
	r.Subscribe(b.listen)

	r.Navigate("/vcra")
	unsubA()
	unsubA()
	r.Navigate("/troubleshooting")

	if len(a.got) != 1 {
		t.Errorf("unsubscribed listener got %d notifications, want 1", len(a.got))
	}
	if len(b.got) != 2 {
		t.Errorf("listener got %d notifications, want 2", len(b.got))
	}
}

func TestUnsubscribeDuringNotification(t *testing.T) {
	r, _ := attached(t, "/")
	later := &recorder{}

	var unsubLater func()
	r.Subscribe(func(*ActiveRoute) { unsubLater() })
	unsubLater, _ = r.Subscribe(later.listen)

	r.Navigate("/vcra")
	if len(later.got) != 0 {
		t.Error("listener removed earlier in the same cycle must not be called")
	}
}

func TestNavigateFromListenerIsQueued(t *testing.T) {
	r, _ := attached(t, "/")

	var seen []string
	redirected := false
	r.Subscribe(func(ar *ActiveRoute) {
		seen = append(seen, "first:"+ar.routeLabel())
		if ar.Name() == "corrosion-ai" && !redirected {
			redirected = true
			if err := r.Navigate("/safetyadvisor"); err != nil {
				t.Errorf("queued Navigate() error: %v", err)
			}
			// The redirect has not been published yet.
			if r.Active().Name() != "corrosion-ai" {
				t.Errorf("active changed during publication: %q", r.Active().Name())
			}
		}
	})
	r.Subscribe(func(ar *ActiveRoute) {
		seen = append(seen, "second:"+ar.routeLabel())
	})

	if err := r.Navigate("/corrosionai"); err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}

	want := []string{
		"first:corrosion-ai",
		"second:corrosion-ai",
		"first:safety-advisor",
		"second:safety-advisor",
	}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen[%d] = %q, want %q", i, seen[i], want[i])
		}
	}
	if r.Active().Name() != "safety-advisor" {
		t.Errorf("active = %q", r.Active().Name())
	}
}

func TestListenerPanicDoesNotStopDelivery(t *testing.T) {
	r, _ := attached(t, "/")
	rec := &recorder{}

	r.Subscribe(func(*ActiveRoute) { panic("render failed") })
	r.Subscribe(rec.listen)

	if err := r.Navigate("/vcra"); err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if len(rec.got) != 1 {
		t.Errorf("later listener got %d notifications, want 1", len(rec.got))
	}

	// The resolver keeps working after a panic.
	if err := r.Navigate("/"); err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if len(rec.got) != 2 {
		t.Errorf("got %d notifications, want 2", len(rec.got))
	}
}

func TestDetach(t *testing.T) {
	r, src := attached(t, "/")
	rec := &recorder{}
	r.Subscribe(rec.listen)

	if err := r.Detach(); err != nil {
		t.Fatalf("Detach() error: %v", err)
	}
	if r.State() != StateDetached || r.Active() != nil {
		t.Errorf("state = %v, active = %v", r.State(), r.Active())
	}
	if len(src.listeners) != 0 {
		t.Error("Detach should stop listening to the source")
	}

	checks := map[string]error{
		"Navigate":       r.Navigate("/vcra"),
		"NavigateToName": r.NavigateToName("vcra", nil, nil),
		"Back":           r.Back(),
		"Detach":         r.Detach(),
		"Attach":         r.Attach(testTable(t), src),
	}
	_, err := r.Resolve("/vcra", nil)
	checks["Resolve"] = err
	_, err = r.Subscribe(rec.listen)
	checks["Subscribe"] = err

	for op, err := range checks {
		if !errors.Is(err, ErrDetached) {
			t.Errorf("%s after Detach error = %v, want ErrDetached", op, err)
		}
	}

	src.set("/troubleshooting")
	if len(rec.got) != 0 {
		t.Errorf("detached resolver notified %d times", len(rec.got))
	}
}

func TestDetachFromListenerDropsQueue(t *testing.T) {
	r, src := attached(t, "/")
	calls := 0
	r.Subscribe(func(*ActiveRoute) {
		calls++
		r.Navigate("/troubleshooting")
		r.Detach()
	})
	r.Subscribe(func(*ActiveRoute) {
		t.Error("listener after Detach must not run")
	})

	if err := r.Navigate("/vcra"); err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if len(src.pushes) != 1 {
		t.Errorf("queued navigation ran after Detach: pushes = %v", src.pushes)
	}
}

func TestExternalLocationChange(t *testing.T) {
	r, src := attached(t, "/")
	rec := &recorder{}
	r.Subscribe(rec.listen)

	src.set("/user/7")
	if len(rec.got) != 1 || rec.got[0].Param("id") != "7" {
		t.Fatalf("published = %v", rec.names())
	}

	// A change to the location already active is not published again.
	src.set("/user/7")
	if len(rec.got) != 1 {
		t.Errorf("duplicate location published: %v", rec.names())
	}

	src.set("/a\\b")
	if len(rec.got) != 2 || !rec.got[1].NotFound() {
		t.Errorf("invalid external location should publish not found: %v", rec.names())
	}
}

func TestBackAndForward(t *testing.T) {
	r, _ := attached(t, "/")
	rec := &recorder{}
	r.Subscribe(rec.listen)

	r.Navigate("/troubleshooting")
	r.Navigate("/vcra")

	if err := r.Back(); err != nil {
		t.Fatalf("Back() error: %v", err)
	}
	if r.Active().Name() != "troubleshooting" {
		t.Errorf("after Back active = %q", r.Active().Name())
	}
	if err := r.Forward(); err != nil {
		t.Fatalf("Forward() error: %v", err)
	}
	if r.Active().Name() != "vcra" {
		t.Errorf("after Forward active = %q", r.Active().Name())
	}
	if err := r.Go(-2); err != nil {
		t.Fatalf("Go(-2) error: %v", err)
	}
	if r.Active().Name() != "home" {
		t.Errorf("after Go(-2) active = %q", r.Active().Name())
	}

	want := []string{"troubleshooting", "vcra", "troubleshooting", "vcra", "home"}
	got := rec.names()
	if len(got) != len(want) {
		t.Fatalf("published %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("published[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBackFromListenerIsQueued(t *testing.T) {
	r, _ := attached(t, "/")
	r.Navigate("/troubleshooting")

	var seen []string
	r.Subscribe(func(ar *ActiveRoute) {
		seen = append(seen, ar.routeLabel())
		if ar.NotFound() {
			r.Back()
		}
	})

	r.Navigate("/missing")
	if len(seen) != 2 || seen[0] != "not_found" || seen[1] != "troubleshooting" {
		t.Errorf("seen = %v", seen)
	}
}

func TestTraversalUnsupported(t *testing.T) {
	r := New()
	if err := r.Attach(testTable(t), &plainSource{loc: "/"}); err != nil {
		t.Fatalf("Attach() error: %v", err)
	}
	if err := r.Back(); !errors.Is(err, ErrTraversalUnsupported) {
		t.Errorf("Back() error = %v, want ErrTraversalUnsupported", err)
	}
}

func TestResolve(t *testing.T) {
	r, src := attached(t, "/")
	rec := &recorder{}
	r.Subscribe(rec.listen)

	ar, err := r.Resolve("/user/42", routepath.Query{"x": {"1"}})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if ar.Name() != "user" || ar.Param("id") != "42" || ar.Query.Get("x") != "1" {
		t.Errorf("Resolve() = %+v", ar)
	}
	if len(rec.got) != 1 {
		t.Fatalf("got %d notifications, want 1", len(rec.got))
	}
	if len(src.pushes) != 0 {
		t.Error("Resolve must not write to the location source")
	}

	// Resolving the unchanged location again does not notify.
	again, err := r.Resolve("/user/42", routepath.Query{"x": {"1"}})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if again != ar {
		t.Error("Resolve of the active location should return the active snapshot")
	}
	if len(rec.got) != 1 {
		t.Errorf("duplicate notification: got %d", len(rec.got))
	}

	nf, err := r.Resolve("/missing", nil)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !nf.NotFound() {
		t.Error("expected not found")
	}

	if _, err := r.Resolve("/a\\b", nil); !errors.Is(err, ErrInvalidLocation) {
		t.Errorf("Resolve() error = %v, want ErrInvalidLocation", err)
	}
}

func TestNavigateAfterResolveDoesNotDuplicateEntry(t *testing.T) {
	r, src := attached(t, "/vcra?unit=c")
	rec := &recorder{}
	r.Subscribe(rec.listen)

	if _, err := r.Resolve("/user/7", nil); err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if err := r.Navigate("/vcra?unit=c"); err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}

	if len(src.pushes) != 0 || len(src.entries) != 1 {
		t.Errorf("pushes = %v, entries = %v", src.pushes, src.entries)
	}
	if r.Active().Name() != "vcra" || len(rec.got) != 2 {
		t.Errorf("active = %q, notifications = %v", r.Active().Name(), rec.names())
	}

	if err := r.Navigate("/troubleshooting"); err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if len(src.pushes) != 1 || src.pushes[0] != "/troubleshooting" {
		t.Errorf("pushes = %v", src.pushes)
	}
}

func TestActiveRouteBind(t *testing.T) {
	r, _ := attached(t, "/user/42")

	var args struct {
		ID int `param:"id"`
	}
	if err := r.Active().Bind(&args); err != nil {
		t.Fatalf("Bind() error: %v", err)
	}
	if args.ID != 42 {
		t.Errorf("ID = %d, want 42", args.ID)
	}
}

func TestStateAndModeStrings(t *testing.T) {
	if StateAttached.String() != "attached" || StateDetached.String() != "detached" || StateUnattached.String() != "unattached" {
		t.Error("unexpected State strings")
	}
	if ModePush.String() != "push" || ModeReplace.String() != "replace" {
		t.Error("unexpected Mode strings")
	}
}
