package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"nutrition-backend/internal/recommendations"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCLIFlow(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "cli.db")
	base := []string{"--db", dbPath, "--user", "cli-user"}

	out, err := run(t, append([]string{"migrate"}, base...)...)
	if err != nil || !strings.Contains(out, "up to date") {
		t.Fatalf("migrate: %q %v", out, err)
	}

	if out, err := run(t, append([]string{"log", "Toast", "250", "--protein", "8"}, base...)...); err != nil || !strings.HasPrefix(out, "logged Toast") {
		t.Fatalf("log: %q %v", out, err)
	}

	out, err = run(t, append([]string{"recommend", "--json", "-n", "3"}, base...)...)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	var res recommendations.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode recommend output: %v\n%s", err, out)
	}
	if len(res.Items) != 3 || res.Averages.Calories == 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	out, err = run(t, append([]string{"accept", res.Items[0].ID}, base...)...)
	if err != nil || !strings.Contains(out, "accepted 1 time(s)") {
		t.Fatalf("accept: %q %v", out, err)
	}
	out, err = run(t, append([]string{"accept", res.Items[0].ID}, base...)...)
	if err != nil || !strings.Contains(out, "accepted 2 time(s)") {
		t.Fatalf("second accept should persist the count: %q %v", out, err)
	}

	if _, err := run(t, append([]string{"accept", "no-such-food"}, base...)...); err == nil {
		t.Fatalf("expected unknown food to fail")
	}
	if _, err := run(t, append([]string{"log", "Toast", "lots"}, base...)...); err == nil {
		t.Fatalf("expected bad kcal to fail")
	}
}

func TestFoodsListsCatalog(t *testing.T) {
	out, err := run(t, "foods")
	if err != nil {
		t.Fatalf("foods: %v", err)
	}
	if !strings.Contains(out, "ID") || !strings.Contains(out, "catalog ") {
		t.Fatalf("unexpected output %q", out)
	}
}
