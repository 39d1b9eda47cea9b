package rag

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/FalkorDB/falkordb-go/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/moolen/kairos/internal/logging"
	"github.com/moolen/kairos/internal/triage/model"
)

// StoreConfig holds connection settings for the incident store.
type StoreConfig struct {
	Host          string
	Port          int
	Password      string
	GraphName     string
	MaxResults    int
	MinSimilarity float64
	DialTimeout   time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	PoolSize      int
	CacheSize     int
}

// DefaultStoreConfig returns defaults suitable for a local FalkorDB.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Host:          "localhost",
		Port:          6379,
		GraphName:     "kairos_incidents",
		MaxResults:    3,
		MinSimilarity: 0.15,
		DialTimeout:   30 * time.Second,
		ReadTimeout:   60 * time.Second,
		WriteTimeout:  60 * time.Second,
		PoolSize:      10,
		CacheSize:     128,
	}
}

// Store is the FalkorDB-backed incident store.
type Store struct {
	config StoreConfig
	db     *falkordb.FalkorDB
	graph  *falkordb.Graph
	cache  *lru.Cache[string, *model.RAGSolution]
	logger *logging.Logger
}

// NewStore creates an unconnected Store.
func NewStore(config StoreConfig) *Store {
	if config.MaxResults <= 0 {
		config.MaxResults = 3
	}
	if config.CacheSize <= 0 {
		config.CacheSize = 128
	}
	cache, _ := lru.New[string, *model.RAGSolution](config.CacheSize)
	return &Store{
		config: config,
		cache:  cache,
		logger: logging.GetLogger("rag.store"),
	}
}

// Connect establishes the FalkorDB connection and selects the graph.
func (s *Store) Connect(ctx context.Context) error {
	s.logger.InfoWithFields("connecting to incident store",
		logging.Field("host", s.config.Host),
		logging.Field("port", s.config.Port),
		logging.Field("graph", s.config.GraphName))

	db, err := falkordb.FalkorDBNew(&falkordb.ConnectionOption{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Password:     s.config.Password,
		DialTimeout:  s.config.DialTimeout,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		PoolSize:     s.config.PoolSize,
	})
	if err != nil {
		return fmt.Errorf("failed to create FalkorDB client: %w", err)
	}
	s.db = db
	s.graph = db.SelectGraph(s.config.GraphName)
	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s.db != nil && s.db.Conn != nil {
		return s.db.Conn.Close()
	}
	return nil
}

// InitializeSchema creates the indexes the retrieval queries rely on.
func (s *Store) InitializeSchema(ctx context.Context) error {
	indexes := []string{
		"CREATE INDEX FOR (i:Incident) ON (i.jira_id)",
		"CREATE INDEX FOR (i:Incident) ON (i.issue_type)",
		"CREATE INDEX FOR (i:Incident) ON (i.environment)",
	}
	for _, query := range indexes {
		if _, err := s.graph.Query(query, nil, nil); err != nil {
			// Index may already exist.
			s.logger.DebugWithFields("index creation skipped",
				logging.Field("error", err.Error()))
		}
	}
	return nil
}

// StoreIncident records one resolved incident.
func (s *Store) StoreIncident(ctx context.Context, jiraID, problem, solution, issueType, environment string) error {
	if s.graph == nil {
		return fmt.Errorf("store not connected")
	}
	query := `MERGE (i:Incident {jira_id: $jira_id})
SET i.problem = $problem, i.solution = $solution, i.issue_type = $issue_type, i.environment = $environment`
	params := map[string]interface{}{
		"jira_id":     jiraID,
		"problem":     problem,
		"solution":    solution,
		"issue_type":  issueType,
		"environment": environment,
	}
	if _, err := s.graph.Query(query, params, nil); err != nil {
		return fmt.Errorf("failed to store incident %s: %w", jiraID, err)
	}
	s.cache.Purge()
	return nil
}

// FindSolutions retrieves incidents matching the issue type and environment,
// ranks them by token-overlap similarity against the problem description and
// returns the top matches.
func (s *Store) FindSolutions(ctx context.Context, problem string, ragCtx *model.RAGContext) (*model.RAGSolution, error) {
	if s.graph == nil {
		return nil, fmt.Errorf("store not connected")
	}

	cacheKey := cacheKeyFor(problem, ragCtx)
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached, nil
	}

	candidates, err := s.fetchCandidates(ragCtx)
	if err != nil {
		return nil, err
	}

	queryTokens := tokenize(buildQueryText(problem, ragCtx))
	var matches []model.HistoricalSolution
	for _, c := range candidates {
		score := similarity(queryTokens, tokenize(c.Problem))
		if score >= s.config.MinSimilarity {
			c.SimilarityScore = score
			matches = append(matches, c)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].SimilarityScore > matches[j].SimilarityScore
	})
	if len(matches) > s.config.MaxResults {
		matches = matches[:s.config.MaxResults]
	}

	result := &model.RAGSolution{SolutionsFound: len(matches) > 0}
	if len(matches) > 0 {
		result.RecommendedSolutions = matches
		result.Message = fmt.Sprintf("Found %d similar historical incidents", len(matches))
	} else {
		result.Message = "No similar historical incidents found"
	}

	s.logger.InfoWithFields("historical solution lookup",
		logging.Field("candidates", len(candidates)),
		logging.Field("matches", len(matches)))
	s.cache.Add(cacheKey, result)
	return result, nil
}

// fetchCandidates queries incidents, preferring issue-type and environment
// filters and widening to all incidents when the filtered set is empty.
func (s *Store) fetchCandidates(ragCtx *model.RAGContext) ([]model.HistoricalSolution, error) {
	queries := []struct {
		cypher string
		params map[string]interface{}
	}{}

	if ragCtx != nil && ragCtx.IssueType != "" {
		queries = append(queries, struct {
			cypher string
			params map[string]interface{}
		}{
			cypher: `MATCH (i:Incident) WHERE i.issue_type = $issue_type RETURN i.problem, i.solution, i.jira_id LIMIT 50`,
			params: map[string]interface{}{"issue_type": ragCtx.IssueType},
		})
	}
	queries = append(queries, struct {
		cypher string
		params map[string]interface{}
	}{
		cypher: `MATCH (i:Incident) RETURN i.problem, i.solution, i.jira_id LIMIT 50`,
		params: nil,
	})

	for _, q := range queries {
		result, err := s.graph.Query(q.cypher, q.params, nil)
		if err != nil {
			return nil, fmt.Errorf("incident query failed: %w", err)
		}
		candidates := parseIncidents(result)
		if len(candidates) > 0 {
			return candidates, nil
		}
	}
	return nil, nil
}

func parseIncidents(result *falkordb.QueryResult) []model.HistoricalSolution {
	var incidents []model.HistoricalSolution
	for result.Next() {
		values := result.Record().Values()
		if len(values) < 3 {
			continue
		}
		incident := model.HistoricalSolution{}
		if v, ok := values[0].(string); ok {
			incident.Problem = v
		}
		if v, ok := values[1].(string); ok {
			incident.Solution = v
		}
		if v, ok := values[2].(string); ok {
			incident.JiraID = v
		}
		if incident.Solution != "" {
			incidents = append(incidents, incident)
		}
	}
	return incidents
}

func buildQueryText(problem string, ragCtx *model.RAGContext) string {
	parts := []string{problem}
	if ragCtx != nil {
		parts = append(parts, ragCtx.IssueType, ragCtx.Namespace)
		parts = append(parts, ragCtx.Services...)
		parts = append(parts, ragCtx.ErrorPatterns...)
	}
	return strings.Join(parts, " ")
}

func cacheKeyFor(problem string, ragCtx *model.RAGContext) string {
	if ragCtx == nil {
		return problem
	}
	return problem + "|" + ragCtx.IssueType + "|" + ragCtx.Environment + "|" + strings.Join(ragCtx.Services, ",")
}

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// stopWords are excluded from similarity scoring.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "in": true,
	"on": true, "of": true, "to": true, "and": true, "or": true, "for": true,
	"with": true, "my": true, "our": true, "this": true, "that": true,
}

func tokenize(text string) map[string]bool {
	tokens := map[string]bool{}
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if len(tok) > 1 && !stopWords[tok] {
			tokens[tok] = true
		}
	}
	return tokens
}

// similarity is the Jaccard index of the two token sets.
func similarity(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
