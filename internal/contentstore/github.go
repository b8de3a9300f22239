package contentstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
)

const githubRawAccept = "application/vnd.github.raw+json"

// GitHubConfig configures a GitHubStore.
type GitHubConfig struct {
	APIURL         string
	Token          string
	Repository     string // owner/repo
	Branch         string
	CommitterName  string
	CommitterEmail string
	Timeout        time.Duration
	HTTPClient     *http.Client
}

// GitHubStore keeps content in a git repository through the hosting
// provider's repository contents API. Every write is a commit.
type GitHubStore struct {
	client    *github.Client
	owner     string
	repo      string
	branch    string
	committer *github.CommitAuthor
}

// NewGitHubStore validates cfg and returns a store bound to one repository branch.
func NewGitHubStore(cfg GitHubConfig) (*GitHubStore, error) {
	owner, repo, ok := strings.Cut(cfg.Repository, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("github store: repository %q is not owner/repo", cfg.Repository)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("github store: empty token")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	client := github.NewClient(httpClient).WithAuthToken(cfg.Token)
	if cfg.APIURL != "" {
		base, err := url.Parse(strings.TrimRight(cfg.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github store: api url: %w", err)
		}
		client.BaseURL = base
	}

	s := &GitHubStore{
		client: client,
		owner:  owner,
		repo:   repo,
		branch: cfg.Branch,
	}
	if cfg.CommitterName != "" && cfg.CommitterEmail != "" {
		s.committer = &github.CommitAuthor{Name: ptr(cfg.CommitterName), Email: ptr(cfg.CommitterEmail)}
	}
	return s, nil
}

func ptr[T any](v T) *T { return &v }

func (s *GitHubStore) getOptions() *github.RepositoryContentGetOptions {
	if s.branch == "" {
		return nil
	}
	return &github.RepositoryContentGetOptions{Ref: s.branch}
}

func (s *GitHubStore) fileOptions(message string, content []byte, sha string) *github.RepositoryContentFileOptions {
	opts := &github.RepositoryContentFileOptions{
		Message:   ptr(message),
		Content:   content,
		Committer: s.committer,
	}
	if sha != "" {
		opts.SHA = ptr(sha)
	}
	if s.branch != "" {
		opts.Branch = ptr(s.branch)
	}
	return opts
}

func (s *GitHubStore) Get(ctx context.Context, p string) (*Object, error) {
	p = CleanPath(p)
	file, dir, resp, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, p, s.getOptions())
	if err != nil {
		if statusOf(resp) == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, githubTransportError("get", p, resp, err)
	}
	if file == nil {
		if dir != nil {
			return nil, fmt.Errorf("%s is a folder: %w", p, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	if t := file.GetType(); t != "" && t != "file" {
		return nil, fmt.Errorf("%s is a %s: %w", p, t, ErrNotFound)
	}

	var content []byte
	switch {
	case file.GetEncoding() == "base64" && file.Content != nil:
		content, err = base64.StdEncoding.DecodeString(strings.ReplaceAll(*file.Content, "\n", ""))
		if err != nil {
			return nil, &TransportError{Op: "get", Path: p, Err: fmt.Errorf("decode content: %w", err)}
		}
	case file.GetSize() > 0:
		// Files above the inline size limit come back without content.
		content, err = s.raw(ctx, p)
		if err != nil {
			return nil, err
		}
	}

	return &Object{Path: p, Content: content, Version: file.GetSHA(), URL: file.GetDownloadURL()}, nil
}

func (s *GitHubStore) raw(ctx context.Context, p string) ([]byte, error) {
	u := fmt.Sprintf("repos/%s/%s/contents/%s", s.owner, s.repo, (&url.URL{Path: p}).String())
	if s.branch != "" {
		u += "?ref=" + url.QueryEscape(s.branch)
	}
	req, err := s.client.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, &TransportError{Op: "get", Path: p, Err: err}
	}
	req.Header.Set("Accept", githubRawAccept)

	var buf bytes.Buffer
	resp, err := s.client.Do(ctx, req, &buf)
	if err != nil {
		return nil, githubTransportError("get", p, resp, err)
	}
	return buf.Bytes(), nil
}

func (s *GitHubStore) Put(ctx context.Context, p string, content []byte, expectedVersion string) (*PutResult, error) {
	p = CleanPath(p)
	if content == nil {
		// The contents API requires the field even for empty files.
		content = []byte{}
	}

	var (
		res  *github.RepositoryContentResponse
		resp *github.Response
		err  error
	)
	if expectedVersion == "" {
		res, resp, err = s.client.Repositories.CreateFile(ctx, s.owner, s.repo, p, s.fileOptions("Create "+p, content, ""))
	} else {
		res, resp, err = s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, p, s.fileOptions("Update "+p, content, expectedVersion))
	}
	if err != nil {
		if isVersionConflict(resp, err) {
			return nil, fmt.Errorf("put %s: %s: %w", p, githubMessage(err), ErrConflict)
		}
		return nil, githubTransportError("put", p, resp, err)
	}
	if res == nil || res.Content == nil {
		return nil, &TransportError{Op: "put", Path: p, Err: errors.New("missing content in response")}
	}
	return &PutResult{Version: res.Content.GetSHA(), URL: res.Content.GetDownloadURL()}, nil
}

func (s *GitHubStore) Delete(ctx context.Context, p string, version string) error {
	p = CleanPath(p)
	if version == "" {
		obj, err := s.Get(ctx, p)
		if err != nil {
			return err
		}
		version = obj.Version
	}

	_, resp, err := s.client.Repositories.DeleteFile(ctx, s.owner, s.repo, p, s.fileOptions("Delete "+p, nil, version))
	if err == nil {
		return nil
	}
	switch {
	case statusOf(resp) == http.StatusNotFound:
		return ErrNotFound
	case isVersionConflict(resp, err):
		return fmt.Errorf("delete %s: %s: %w", p, githubMessage(err), ErrConflict)
	default:
		return githubTransportError("delete", p, resp, err)
	}
}

func (s *GitHubStore) List(ctx context.Context, folder string) ([]Entry, error) {
	folder = CleanPath(folder)
	file, dir, resp, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, folder, s.getOptions())
	if err != nil {
		if statusOf(resp) == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, githubTransportError("list", folder, resp, err)
	}
	if file != nil {
		return nil, fmt.Errorf("%s is not a folder: %w", folder, ErrNotFound)
	}

	entries := make([]Entry, 0, len(dir))
	for _, it := range dir {
		entries = append(entries, Entry{
			Name:    it.GetName(),
			Path:    it.GetPath(),
			Version: it.GetSHA(),
			Dir:     it.GetType() == "dir",
		})
	}
	return entries, nil
}

// Ping checks that the repository is reachable with the configured token.
func (s *GitHubStore) Ping(ctx context.Context) error {
	_, resp, err := s.client.Repositories.Get(ctx, s.owner, s.repo)
	if err != nil {
		return githubTransportError("ping", s.owner+"/"+s.repo, resp, err)
	}
	return nil
}

func statusOf(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}

// isVersionConflict reports whether a failed write was rejected because of
// the sha it carried. The API answers 409 for a stale sha and 422 when a sha
// is missing for an existing file; any other 422 is a bad request.
func isVersionConflict(resp *github.Response, err error) bool {
	switch statusOf(resp) {
	case http.StatusConflict:
		return true
	case http.StatusUnprocessableEntity:
		return strings.Contains(strings.ToLower(githubMessage(err)), "sha")
	default:
		return false
	}
}

func githubTransportError(op, p string, resp *github.Response, err error) error {
	status := statusOf(resp)
	if status == 0 {
		return &TransportError{Op: op, Path: p, Err: err}
	}
	return &TransportError{Op: op, Path: p, StatusCode: status, Err: errors.New(githubMessage(err))}
}

func githubMessage(err error) string {
	var (
		er *github.ErrorResponse
		rl *github.RateLimitError
		ab *github.AbuseRateLimitError
	)
	switch {
	case errors.As(err, &er) && er.Message != "":
		return er.Message
	case errors.As(err, &rl) && rl.Message != "":
		return rl.Message
	case errors.As(err, &ab) && ab.Message != "":
		return ab.Message
	default:
		return "unexpected response"
	}
}
