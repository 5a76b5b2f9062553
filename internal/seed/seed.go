// Package seed fills a store with generated questionnaires for demos
// and load checks.
package seed

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/parisxmas/icpform/internal/models"
	"github.com/parisxmas/icpform/internal/repository"
	"github.com/parisxmas/icpform/internal/schema"
)

var (
	prefixes = []string{"Acme", "Blue", "North", "Bright", "Cedar", "Delta", "Ember", "Summit", "Harbor", "Nova"}
	suffixes = []string{"Analytics", "Labs", "Goods", "Studio", "Health", "Academy", "Realty", "Capital", "Works", "Supply"}
	topics   = []string{"pricing", "onboarding", "reliability", "support", "sustainability", "speed", "security", "design"}
	cities   = []string{"London", "Tokyo", "Berlin", "Toronto", "Lagos", "Lima", "Seoul", "Vienna"}
)

// Profile returns a questionnaire that passes strict validation.
func Profile(rng *rand.Rand, i int) models.Profile {
	name := prefixes[rng.Intn(len(prefixes))] + " " + suffixes[rng.Intn(len(suffixes))]
	p := models.NewProfile()
	p.CompanyName = fmt.Sprintf("%s %d", name, i)
	p.WebsiteURL = fmt.Sprintf("https://%s-%d.example.com", strings.ToLower(strings.ReplaceAll(name, " ", "-")), i)
	p.BusinessDescription = fmt.Sprintf("%s helps customers with %s.", name, pick(rng, topics))
	p.Interests = fmt.Sprintf("Customers care about %s and %s.", pick(rng, topics), pick(rng, topics))
	p.TargetKeywords = strings.Join([]string{pick(rng, topics), pick(rng, topics)}, ", ")
	p.Competitors = pick(rng, prefixes) + " Co, " + pick(rng, prefixes) + " Inc"
	p.CompetitorWebsites = "https://rival.example.com"

	for _, f := range schema.Fields() {
		switch f.Kind {
		case schema.KindChoice:
			_ = schema.Set(&p, f.Name, f.Options[rng.Intn(len(f.Options))].Value)
		case schema.KindTags:
			_ = schema.Set(&p, f.Name, tags(rng, f.Options))
		}
	}

	// Fill whatever conditional field the random choices revealed.
	for _, f := range schema.Fields() {
		if f.Conditional() && f.Revealed(&p) {
			_ = schema.Set(&p, f.Name, pick(rng, cities))
		}
	}
	return p
}

// Run inserts count generated questionnaires through repo with createdAt
// spread one second apart ending at now, and reports progress to w.
func Run(ctx context.Context, repo *repository.SubmissionRepo, count int, seed int64, now time.Time, w io.Writer) error {
	rng := rand.New(rand.NewSource(seed))
	start := time.Now()
	lastReport := start

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		sub := &models.StoredProfile{
			Profile:   Profile(rng, i+1),
			CreatedAt: now.Add(-time.Duration(count-1-i) * time.Second).UTC(),
		}
		if _, err := repo.Create(ctx, sub); err != nil {
			return fmt.Errorf("insert %d: %w", i+1, err)
		}
		if time.Since(lastReport) >= 2*time.Second {
			elapsed := time.Since(start)
			fmt.Fprintf(w, "  %d / %d (%.0f docs/s)\n", i+1, count, float64(i+1)/elapsed.Seconds())
			lastReport = time.Now()
		}
	}

	elapsed := time.Since(start)
	rate := float64(count) / max(elapsed.Seconds(), 1e-9)
	fmt.Fprintf(w, "Inserted %d submissions in %s (%.0f docs/s)\n", count, elapsed.Round(time.Millisecond), rate)
	return nil
}

func pick(rng *rand.Rand, from []string) string {
	return from[rng.Intn(len(from))]
}

// tags picks one to three distinct option values.
func tags(rng *rand.Rand, opts []schema.Option) []string {
	n := 1 + rng.Intn(min(3, len(opts)))
	perm := rng.Perm(len(opts))[:n]
	out := make([]string, n)
	for i, idx := range perm {
		out[i] = opts[idx].Value
	}
	return out
}
