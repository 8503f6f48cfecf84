package verification

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	domainErrors "github.com/vusallyv/ds-practice-2025/internal/domain/errors"
	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
	"github.com/vusallyv/ds-practice-2025/internal/pkg/vclock"
)

// MaxSuggestions bounds the number of books returned.
const MaxSuggestions = 3

// FallbackBooks is sampled when the recommendation oracle is unusable.
var FallbackBooks = []model.Suggestion{
	{Title: "1984", Author: "George Orwell"},
	{Title: "Animal Farm", Author: "George Orwell"},
	{Title: "Brave New World", Author: "Aldous Huxley"},
	{Title: "Fahrenheit 451", Author: "Ray Bradbury"},
	{Title: "The Catcher in the Rye", Author: "J.D. Salinger"},
	{Title: "The Great Gatsby", Author: "F. Scott Fitzgerald"},
	{Title: "To Kill a Mockingbird", Author: "Harper Lee"},
	{Title: "The Lord of the Rings", Author: "J.R.R. Tolkien"},
	{Title: "The Hobbit", Author: "J.R.R. Tolkien"},
	{Title: "The Da Vinci Code", Author: "Dan Brown"},
	{Title: "The Alchemist", Author: "Paulo Coelho"},
	{Title: "The Little Prince", Author: "Antoine de Saint-Exupéry"},
}

// RecommendationOracle returns "Title by Author" lines for the ordered items.
type RecommendationOracle interface {
	Recommend(ctx context.Context, items []model.Item) ([]string, error)
}

// Recommender produces book suggestions for an order.
type Recommender struct {
	states  *table
	oracle  RecommendationOracle
	timeout time.Duration
	logger  *slog.Logger

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewRecommender(oracle RecommendationOracle, timeout time.Duration, logger *slog.Logger) *Recommender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recommender{
		states:  newTable(SlotSuggestions),
		oracle:  oracle,
		timeout: timeout,
		logger:  logger,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *Recommender) Init(_ context.Context, orderID string, order model.Order) error {
	r.states.init(orderID, order)
	return nil
}

func (r *Recommender) Clear(_ context.Context, orderID string) {
	r.states.clear(orderID)
}

// Recommend never fails on oracle trouble; it falls back to a sample of
// FallbackBooks instead.
func (r *Recommender) Recommend(ctx context.Context, orderID string, clock vclock.Clock) (Result, error) {
	order, clock, err := r.states.advance(orderID, clock)
	if err != nil {
		return Result{}, err
	}

	suggestions, err := r.ask(ctx, order.Items)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		if !errors.Is(err, domainErrors.ErrOracleDisabled) {
			r.logger.Warn("recommendation oracle failed, using fallback", slog.String("order_id", orderID), slog.Any("error", err))
		}
		suggestions = r.fallback()
	}

	res := pass(clock)
	res.Suggestions = suggestions
	return res, nil
}

func (r *Recommender) ask(ctx context.Context, items []model.Item) ([]model.Suggestion, error) {
	if r.oracle == nil {
		return nil, domainErrors.ErrOracleDisabled
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	lines, err := r.oracle.Recommend(ctx, items)
	if err != nil {
		return nil, err
	}
	return parseSuggestions(lines)
}

func (r *Recommender) fallback() []model.Suggestion {
	r.rndMu.Lock()
	idx := r.rnd.Perm(len(FallbackBooks))
	r.rndMu.Unlock()

	out := make([]model.Suggestion, 0, MaxSuggestions)
	for _, i := range idx[:MaxSuggestions] {
		out = append(out, FallbackBooks[i])
	}
	return out
}

// parseSuggestions rejects the whole answer when any line is malformed.
func parseSuggestions(lines []string) ([]model.Suggestion, error) {
	out := make([]model.Suggestion, 0, MaxSuggestions)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		idx := strings.LastIndex(line, " by ")
		if idx < 0 {
			return nil, domainErrors.ErrOracleFailure
		}
		title := strings.TrimSpace(line[:idx])
		author := strings.TrimSpace(line[idx+len(" by "):])
		if title == "" || author == "" {
			return nil, domainErrors.ErrOracleFailure
		}
		out = append(out, model.Suggestion{Title: title, Author: author})
		if len(out) == MaxSuggestions {
			break
		}
	}
	if len(out) == 0 {
		return nil, domainErrors.ErrOracleFailure
	}
	return out, nil
}
