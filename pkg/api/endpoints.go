package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/amyloid-notes/pkg/corpus"
	"github.com/hazyhaar/amyloid-notes/pkg/keywords"
	"github.com/hazyhaar/amyloid-notes/pkg/kit"
	"github.com/hazyhaar/amyloid-notes/pkg/textnorm"
)

// MaxBatch is the largest number of texts one batch request may carry.
const MaxBatch = 100

// Service bundles what the endpoints need. Store is optional; without it
// the datasets endpoint reports no source status.
type Service struct {
	Normalizer *textnorm.Normalizer
	Keywords   *keywords.Registry
	Store      *corpus.Store
	Logger     *slog.Logger
}

// Shared request/response types used by both HTTP and MCP transports.

type normalizeReq struct {
	Text  *string
	Mode  textnorm.Mode
	Trace bool
	Flag  bool
}

type normalizeResponse struct {
	Text   string                 `json:"text"`
	Mode   textnorm.Mode          `json:"mode"`
	Stages []textnorm.StageOutput `json:"stages,omitempty"`
	Hits   []keywords.Hit         `json:"hits,omitempty"`
}

type normalizeBatchReq struct {
	Texts []string
	Mode  textnorm.Mode
}

type batchResponse struct {
	Results []normalizeResponse `json:"results"`
}

type camelCaseReq struct {
	Token string
}

type camelCaseResponse struct {
	Token string `json:"token"`
	Split string `json:"split"`
}

type flagReq struct {
	Text  string
	Clean bool
	Opts  *keywords.FlagOptions
}

type groupsResponse struct {
	Groups []keywords.GroupInfo `json:"groups"`
}

type datasetInfo struct {
	ID             string        `json:"id"`
	Prefix         string        `json:"prefix,omitempty"`
	Description    string        `json:"description"`
	DocumentColumn string        `json:"document_column,omitempty"`
	DateColumn     string        `json:"date_column,omitempty"`
	Mode           textnorm.Mode `json:"mode,omitempty"`
	Preprocessed   bool          `json:"preprocessed"`
	Path           string        `json:"path"`
	LastCheck      *int64        `json:"last_check,omitempty"`
	LastStatus     *int          `json:"last_status,omitempty"`
	LastError      *string       `json:"last_error,omitempty"`
	Documents      int           `json:"documents"`
}

type datasetsResponse struct {
	Datasets []datasetInfo `json:"datasets"`
}

func badRequest(format string, args ...any) error {
	return &textnorm.InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}

func isBadRequest(err error) bool {
	return errors.Is(err, textnorm.ErrInvalidInput)
}

// middleware wraps every endpoint with request ids and access logging.
func (s *Service) middleware(name string) kit.Middleware {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return kit.Chain(kit.RequestID(), kit.Logging(logger, name))
}

func (s *Service) normalize(req *normalizeReq) (normalizeResponse, error) {
	mode := req.Mode
	if mode == "" {
		mode = textnorm.ModeCardiacPath
	}
	text, err := s.Normalizer.CleanNullable(req.Text, mode)
	if err != nil {
		return normalizeResponse{}, err
	}
	resp := normalizeResponse{Text: text, Mode: mode}
	if req.Trace && mode == textnorm.ModeCardiacPath {
		resp.Stages = s.Normalizer.Trace(*req.Text)
	}
	if req.Flag && s.Keywords != nil {
		resp.Hits = s.Keywords.Flag(text, nil).Hits
	}
	return resp, nil
}

func (s *Service) normalizeEndpoint() kit.Endpoint {
	return s.middleware("normalize")(func(_ context.Context, request any) (any, error) {
		return s.normalize(request.(*normalizeReq))
	})
}

func (s *Service) normalizeBatchEndpoint() kit.Endpoint {
	return s.middleware("normalize_batch")(func(ctx context.Context, request any) (any, error) {
		req := request.(*normalizeBatchReq)
		if len(req.Texts) == 0 {
			return nil, badRequest("texts array is empty")
		}
		if len(req.Texts) > MaxBatch {
			return nil, badRequest("too many texts (max %d, got %d)", MaxBatch, len(req.Texts))
		}
		results := make([]normalizeResponse, len(req.Texts))
		for i := range req.Texts {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r, err := s.normalize(&normalizeReq{Text: &req.Texts[i], Mode: req.Mode})
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
		return batchResponse{Results: results}, nil
	})
}

func (s *Service) camelCaseEndpoint() kit.Endpoint {
	return s.middleware("split_camel_case")(func(_ context.Context, request any) (any, error) {
		req := request.(*camelCaseReq)
		return camelCaseResponse{Token: req.Token, Split: textnorm.SplitCamelCase(req.Token)}, nil
	})
}

func (s *Service) flagEndpoint() kit.Endpoint {
	return s.middleware("flag_keywords")(func(_ context.Context, request any) (any, error) {
		req := request.(*flagReq)
		if s.Keywords == nil {
			return nil, errors.New("keyword groups not loaded")
		}
		text := req.Text
		if req.Clean {
			text = s.Normalizer.CleanCardiacPath(text)
		}
		return s.Keywords.Flag(text, req.Opts), nil
	})
}

func (s *Service) listGroupsEndpoint() kit.Endpoint {
	return s.middleware("list_keyword_groups")(func(_ context.Context, _ any) (any, error) {
		if s.Keywords == nil {
			return groupsResponse{Groups: []keywords.GroupInfo{}}, nil
		}
		return groupsResponse{Groups: s.Keywords.ListGroups()}, nil
	})
}

func (s *Service) listDatasetsEndpoint() kit.Endpoint {
	return s.middleware("list_datasets")(func(ctx context.Context, _ any) (any, error) {
		status := make(map[string]corpus.Source)
		if s.Store != nil {
			sources, err := s.Store.ListSources()
			if err != nil {
				return nil, err
			}
			for _, src := range sources {
				status[src.DatasetID] = src
			}
		}

		all := corpus.All()
		out := make([]datasetInfo, 0, len(all))
		for _, ds := range all {
			info := datasetInfo{
				ID:             ds.ID(),
				Prefix:         ds.Prefix(),
				Description:    ds.Description(),
				DocumentColumn: ds.DocumentColumn(),
				DateColumn:     ds.DateColumn(),
				Mode:           ds.Mode(),
				Preprocessed:   ds.Preprocessed(),
				Path:           ds.DefaultPaths().Documents,
			}
			if src, ok := status[ds.ID()]; ok {
				info.Path = src.Path
				info.LastCheck = src.LastCheck
				info.LastStatus = src.LastStatus
				info.LastError = src.LastError
			}
			if s.Store != nil {
				n, err := s.Store.CountDocuments(ctx, ds.ID())
				if err != nil {
					return nil, err
				}
				info.Documents = n
			}
			out = append(out, info)
		}
		return datasetsResponse{Datasets: out}, nil
	})
}
