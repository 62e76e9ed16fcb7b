// Package discovery locates provider manifests on disk, maintains the
// process-wide resource/adapter/extension index, and answers
// version-constrained lookup queries.
package discovery

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/open-dsc/dsc/pkg/dsclib/dscerror"
	"github.com/open-dsc/dsc/pkg/dsclib/expr"
	"github.com/open-dsc/dsc/pkg/dsclib/invoke"
	"github.com/open-dsc/dsc/pkg/dsclib/logger"
	"github.com/open-dsc/dsc/pkg/dsclib/manifest"
	"github.com/open-dsc/dsc/pkg/dsclib/settings"
	"github.com/open-dsc/dsc/pkg/dsclib/types"
)

// initialScanBufferCap bounds the line scanner used for adapter.list and
// extension discover output, mirroring invoke.Run's stdout buffer sizing.
const initialScanBufferCap = 1 << 20

// Mode selects how aggressively the index is refreshed across discovery
// passes.
type Mode string

const (
	ModePreDeployment    Mode = "PreDeployment"
	ModeDuringDeployment Mode = "DuringDeployment"
)

// The lowercased filename suffixes that select each manifest category.
var resourceSuffixes = []string{".dsc.resource.json", ".dsc.resource.yaml", ".dsc.resource.yml"}
var adaptedResourceSuffixes = []string{".dsc.adaptedresource.json", ".dsc.adaptedresource.yaml", ".dsc.adaptedresource.yml"}
var extensionSuffixes = []string{".dsc.extension.json", ".dsc.extension.yaml", ".dsc.extension.yml"}
var bundleSuffixes = []string{".dsc.manifests.json", ".dsc.manifests.yaml", ".dsc.manifests.yml"}

// Filter selects a single candidate provider by type, optional version
// requirement, and optional adapter requirement.
type Filter struct {
	ResourceType   types.FullyQualifiedTypeName
	Version        *types.SemanticVersionReq
	RequireAdapter string
}

// entry pairs a parsed manifest with its resolved ResourceVersion so the
// index can keep candidates sorted newest-first without re-parsing.
type entry struct {
	res     manifest.Resource
	version types.ResourceVersion
}

// ProcessRunner abstracts subprocess execution so the extension-discover and
// adapter.list invocation paths exercised by Refresh can be driven by a test
// double instead of spawning real processes.
type ProcessRunner interface {
	Run(ctx context.Context, typeName, executable, manifestDir string, args []string, input invoke.ProcessInput, exitCodes map[string]string) (*invoke.ProcessResult, error)
}

// defaultProcessRunner delegates to invoke.Run.
type defaultProcessRunner struct{}

func (defaultProcessRunner) Run(ctx context.Context, typeName, executable, manifestDir string, args []string, input invoke.ProcessInput, exitCodes map[string]string) (*invoke.ProcessResult, error) {
	return invoke.Run(ctx, typeName, executable, manifestDir, args, input, exitCodes)
}

// Index is the process-wide discovery cache: resources and adapters keyed
// by lowercased type name, extensions one-per-type, plus the persisted
// adapted-resource-name to adapter-name lookup table. Readers clone rather
// than hold the lock across suspension.
type Index struct {
	mu               sync.RWMutex
	resources        map[string][]entry
	adapters         map[string][]entry
	adaptedResources map[string][]entry
	extensions       map[string]manifest.Extension
	adapterLookup    map[string]string
	runner           ProcessRunner

	lookupPath  string
	searchPaths []string
}

// NewIndex constructs an empty index. lookupPath is the adapted-resources
// lookup table path; pass "" to use DefaultLookupPath().
func NewIndex(lookupPath string) *Index {
	if lookupPath == "" {
		lookupPath = DefaultLookupPath()
	}
	idx := &Index{
		resources:        map[string][]entry{},
		adapters:         map[string][]entry{},
		adaptedResources: map[string][]entry{},
		extensions:       map[string]manifest.Extension{},
		adapterLookup:    map[string]string{},
		runner:           defaultProcessRunner{},
		lookupPath:       lookupPath,
	}
	idx.loadLookupTable()
	return idx
}

// SetProcessRunner overrides the subprocess runner used by the
// extension-discover and adapter.list invocation paths. Exposed so tests can
// substitute a mock; production callers never need it.
func (idx *Index) SetProcessRunner(r ProcessRunner) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.runner = r
}

// DefaultLookupPath returns the platform-specific adapted-resources lookup
// table path.
func DefaultLookupPath() string {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LocalAppData"); dir != "" {
			return filepath.Join(dir, "dsc", "AdaptedResourcesLookupTable.json")
		}
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".dsc", "AdaptedResourcesLookupTable.json")
	}
	return ""
}

func (idx *Index) loadLookupTable() {
	if idx.lookupPath == "" {
		return
	}
	data, err := os.ReadFile(idx.lookupPath)
	if err != nil {
		return
	}
	var table map[string]string
	if err := json.Unmarshal(data, &table); err != nil {
		// Corruption yields an empty table, per the persisted-state contract.
		return
	}
	idx.adapterLookup = table
}

func (idx *Index) saveLookupTable() {
	if idx.lookupPath == "" {
		return
	}
	data, err := json.Marshal(idx.adapterLookup)
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(idx.lookupPath), 0o755)
	_ = os.WriteFile(idx.lookupPath, data, 0o644)
}

// ResolveSearchPaths implements the search-path resolution rule: custom
// DSC_RESOURCE_PATH override (when allowed), else configured directories
// plus optionally the process PATH, plus the executable's own directory
// when not in custom-path mode. When custom-path mode is active, PATH is
// overwritten so subprocesses inherit the same search (a documented
// process-wide side effect).
func ResolveSearchPaths(setting settings.ResourcePathSetting, executableDir string) []string {
	if setting.AllowEnvOverride {
		if custom := os.Getenv("DSC_RESOURCE_PATH"); custom != "" {
			dirs := dedupe(filepath.SplitList(custom))
			os.Setenv("PATH", strings.Join(dirs, string(os.PathListSeparator)))
			return dirs
		}
	}

	dirs := append([]string{}, setting.Directories...)
	if setting.AppendEnvPath {
		dirs = append(dirs, filepath.SplitList(os.Getenv("PATH"))...)
	}
	if executableDir != "" {
		dirs = append(dirs, executableDir)
	}
	return dedupe(dirs)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, d := range in {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// Refresh scans every directory in searchPaths for manifest files,
// adding to the existing index (PreDeployment) or clearing it first and
// rebuilding it (DuringDeployment).
func (idx *Index) Refresh(searchPaths []string, mode Mode) error {
	idx.mu.Lock()
	idx.searchPaths = searchPaths

	if mode == ModeDuringDeployment {
		idx.resources = map[string][]entry{}
		idx.adapters = map[string][]entry{}
		idx.adaptedResources = map[string][]entry{}
		idx.extensions = map[string]manifest.Extension{}
	}

	for _, dir := range searchPaths {
		files, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			idx.scanFile(filepath.Join(dir, f.Name()))
		}
	}
	idx.sortAll()
	idx.mu.Unlock()

	// Both passes below invoke subprocesses, so they run after the main
	// scan's lock is released (spec §4.1's "after the main scan").
	idx.discoverFromExtensions("")
	idx.discoverAdaptedResources("", "")
	return nil
}

// discoverFromExtensions implements the Adapter-extension discover path: every
// discovered extension with the Discover capability is invoked, and its
// stdout, parsed one JSON resource per line, is merged into the resource
// index when it matches namePattern. Extension discovery failure is
// non-fatal to the overall refresh.
func (idx *Index) discoverFromExtensions(namePattern string) {
	for _, e := range idx.ExtensionsWithCapability(manifest.CapabilityDiscover) {
		if e.Discover == nil {
			continue
		}
		args, err := invoke.BuildGetArgs(e.Discover.Args, invoke.ArgContext{TypeName: e.Type})
		if err != nil {
			logger.Warnf("discovery: building discover args for %s: %v", e.Type, err)
			continue
		}
		res, err := idx.runnerSnapshot().Run(context.Background(), e.Type.String(), e.Discover.Executable, extensionDir(e), args, invoke.ProcessInput{}, nil)
		if err != nil {
			logger.Warnf("discovery: extension %s discover failed: %v", e.Type, err)
			continue
		}
		idx.mergeDiscoverLines(res.Stdout, namePattern)
	}
}

func extensionDir(e manifest.Extension) string {
	if e.Path == "" {
		return ""
	}
	return filepath.Dir(e.Path)
}

func (idx *Index) mergeDiscoverLines(stdout []byte, namePattern string) {
	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), initialScanBufferCap)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var r manifest.Resource
		if err := json.Unmarshal(line, &r); err != nil {
			logger.Warnf("discovery: parsing extension discover output: %v", err)
			continue
		}
		if namePattern != "" && !strings.Contains(strings.ToLower(r.Type.String()), strings.ToLower(namePattern)) {
			continue
		}
		idx.MergeDiscoveredResource(r)
	}
}

// discoverAdaptedResources implements the Adapted-resource discovery pass:
// for each known adapter whose name matches adapterPattern, invoke its
// `adapter.list` subcommand and index every matching record it yields,
// recording the resource-to-adapter mapping for future lookups.
func (idx *Index) discoverAdaptedResources(namePattern, adapterPattern string) {
	for _, a := range idx.snapshotAdapters() {
		if adapterPattern != "" && !strings.Contains(strings.ToLower(a.res.Type.String()), strings.ToLower(adapterPattern)) {
			continue
		}
		if a.res.Adapter == nil || a.res.Adapter.List == nil {
			continue
		}
		op := a.res.Adapter.List
		args, err := invoke.BuildGetArgs(op.Args, invoke.ArgContext{TypeName: a.res.Type})
		if err != nil {
			logger.Warnf("discovery: building adapter.list args for %s: %v", a.res.Type, err)
			continue
		}
		res, err := idx.runnerSnapshot().Run(context.Background(), a.res.Type.String(), op.Executable, resourceDir(a.res), args, invoke.ProcessInput{}, a.res.ExitCodes)
		if err != nil {
			logger.Warnf("discovery: adapter %s list failed: %v", a.res.Type, err)
			continue
		}
		idx.mergeAdapterListLines(a.res.Type.String(), res.Stdout, namePattern)
	}
}

func resourceDir(r manifest.Resource) string {
	if r.Path == "" {
		return ""
	}
	return filepath.Dir(r.Path)
}

func (idx *Index) snapshotAdapters() []entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out []entry
	for _, entries := range idx.adapters {
		out = append(out, entries...)
	}
	return out
}

func (idx *Index) runnerSnapshot() ProcessRunner {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.runner
}

func (idx *Index) mergeAdapterListLines(adapterName string, stdout []byte, namePattern string) {
	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), initialScanBufferCap)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var r manifest.Resource
		if err := json.Unmarshal(line, &r); err != nil {
			logger.Warnf("discovery: parsing %s adapter.list record: %v", adapterName, err)
			continue
		}
		if r.RequireAdapter == "" {
			logger.Warnf("discovery: %s adapter.list record for %s missing requireAdapter, skipping", adapterName, r.Type)
			continue
		}
		if namePattern != "" && !strings.Contains(strings.ToLower(r.Type.String()), strings.ToLower(namePattern)) {
			continue
		}
		idx.mu.Lock()
		idx.indexResource(r, true)
		idx.sortAll()
		idx.mu.Unlock()
		idx.RecordAdapterForResource(r.Type.String(), adapterName)
	}
}

func (idx *Index) scanFile(path string) {
	lower := strings.ToLower(path)
	switch {
	case matchesAny(lower, resourceSuffixes):
		idx.loadResource(path, false)
	case matchesAny(lower, adaptedResourceSuffixes):
		idx.loadResource(path, true)
	case matchesAny(lower, extensionSuffixes):
		idx.loadExtension(path)
	case matchesAny(lower, bundleSuffixes):
		idx.loadBundle(path)
	}
}

func matchesAny(lower string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

func (idx *Index) loadResource(path string, adapted bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warnf("discovery: reading %s: %v", path, err)
		return
	}
	r, err := manifest.ParseResource(path, data)
	if err != nil {
		logger.Warnf("discovery: parsing %s: %v", path, err)
		return
	}
	idx.indexResource(*r, adapted)
}

func (idx *Index) loadExtension(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warnf("discovery: reading %s: %v", path, err)
		return
	}
	e, err := manifest.ParseExtension(path, data)
	if err != nil {
		logger.Warnf("discovery: parsing %s: %v", path, err)
		return
	}
	idx.indexExtension(*e)
}

func (idx *Index) loadBundle(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warnf("discovery: reading %s: %v", path, err)
		return
	}
	b, err := manifest.ParseBundle(path, data)
	if err != nil {
		logger.Warnf("discovery: parsing %s: %v", path, err)
		return
	}
	for _, r := range b.Resources {
		idx.indexResource(r, false)
	}
	for _, r := range b.AdaptedResources {
		idx.indexResource(r, true)
	}
	for _, e := range b.Extensions {
		idx.indexExtension(e)
	}
}

// emptyConditionContext is the empty expr.Context a manifest's `condition`
// is evaluated against during discovery (spec §4.1): no parameters,
// variables, or resource references are in scope at this point.
type emptyConditionContext struct{}

func (emptyConditionContext) Parameter(string) (expr.Value, bool) { return nil, false }
func (emptyConditionContext) Variable(string) (expr.Value, bool)  { return nil, false }
func (emptyConditionContext) Reference(string) (expr.Value, bool) { return nil, false }

// evaluateCondition reports whether a manifest's declared condition admits
// it into the index. An absent condition always passes. A non-boolean
// result is reported as an error so the caller can fail discovery of that
// one manifest without aborting the scan.
func evaluateCondition(r manifest.Resource) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(r.Condition)) {
	case "":
		return true, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	v, err := expr.DefaultEvaluator{}.ParseAndExecute(r.Condition, emptyConditionContext{})
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, dscerror.Validation(fmt.Sprintf("condition for %s did not evaluate to a boolean", r.Type))
	}
	return b, nil
}

// indexResource must be called with idx.mu held.
func (idx *Index) indexResource(r manifest.Resource, adapted bool) {
	if ok, err := evaluateCondition(r); err != nil {
		logger.Warnf("discovery: %s condition failed: %v", r.Type, err)
		return
	} else if !ok {
		return
	}

	key := r.Type.Lowercased()
	e := entry{res: r, version: r.ParsedVersion()}
	if !e.version.IsSemantic() {
		logger.Warnf("discovery: %s has a non-semantic version %q, indexing as arbitrary", r.Type, r.Version)
	}

	if adapted {
		idx.adaptedResources[key] = append(idx.adaptedResources[key], e)
		return
	}
	idx.resources[key] = append(idx.resources[key], e)
	if r.IsAdapter() {
		idx.adapters[key] = append(idx.adapters[key], e)
	}
}

// indexExtension must be called with idx.mu held. On collision, only the
// highest-version instance survives.
func (idx *Index) indexExtension(e manifest.Extension) {
	key := e.Type.Lowercased()
	newVersion := types.ParseResourceVersion(e.Version)
	if existing, ok := idx.extensions[key]; ok {
		if newVersion.Compare(types.ParseResourceVersion(existing.Version)) <= 0 {
			return
		}
	}
	idx.extensions[key] = e
}

// sortAll must be called with idx.mu held.
func (idx *Index) sortAll() {
	sortEntries := func(m map[string][]entry) {
		for k := range m {
			entries := m[k]
			sort.SliceStable(entries, func(i, j int) bool {
				return entries[i].version.Compare(entries[j].version) > 0
			})
			m[k] = entries
		}
	}
	sortEntries(idx.resources)
	sortEntries(idx.adapters)
	sortEntries(idx.adaptedResources)
}

// Find resolves a Filter to a single candidate manifest, per the matching
// rule: absent version matches on type+adapter alone; a version
// requirement matches a semantic candidate via SemanticVersionReq.Matches,
// or an arbitrary candidate via exact string equality. Ties favor the
// first (newest) candidate in the sorted vector.
func (idx *Index) Find(filter Filter) (*manifest.Resource, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	pool := idx.resources
	if filter.RequireAdapter != "" {
		pool = idx.adaptedResources
	}

	candidates := pool[filter.ResourceType.Lowercased()]
	for _, c := range candidates {
		if !matchesVersion(c, filter.Version) {
			continue
		}
		found := c.res
		return &found, nil
	}

	version := ""
	if filter.Version != nil {
		version = filter.Version.String()
	}
	return nil, dscerror.ResourceNotFound(filter.ResourceType.String(), version)
}

func matchesVersion(c entry, req *types.SemanticVersionReq) bool {
	if req == nil {
		return true
	}
	if sem, ok := c.version.Semantic(); ok {
		return req.Matches(sem)
	}
	return c.version.String() == req.String()
}

// FindAdapter looks up a discovered adapter manifest by its fully
// qualified type name.
func (idx *Index) FindAdapter(name types.FullyQualifiedTypeName) (*manifest.Resource, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	candidates := idx.adapters[name.Lowercased()]
	if len(candidates) == 0 {
		return nil, dscerror.AdapterNotFound(name.String())
	}
	found := candidates[0].res
	return &found, nil
}

// List returns every discovered manifest of the given kind whose type and
// (for adapted resources) adapter name match the given patterns. An empty
// pattern matches everything. Listing adapters returns only adapters;
// listing resources returns plain resources plus adapted resources whose
// RequireAdapter matches adapterPattern.
func (idx *Index) List(kind manifest.Kind, namePattern, adapterPattern string) []manifest.Resource {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	matchesName := func(key string) bool {
		return namePattern == "" || strings.Contains(key, strings.ToLower(namePattern))
	}

	var out []manifest.Resource
	if kind == manifest.KindAdapter {
		for key, entries := range idx.adapters {
			if !matchesName(key) {
				continue
			}
			for _, e := range entries {
				out = append(out, e.res)
			}
		}
		return out
	}

	for key, entries := range idx.resources {
		if !matchesName(key) {
			continue
		}
		for _, e := range entries {
			out = append(out, e.res)
		}
	}
	for key, entries := range idx.adaptedResources {
		if !matchesName(key) {
			continue
		}
		for _, e := range entries {
			if adapterPattern != "" && !strings.Contains(strings.ToLower(e.res.RequireAdapter), strings.ToLower(adapterPattern)) {
				continue
			}
			out = append(out, e.res)
		}
	}
	return out
}

// RecordAdapterForResource persists the adapter that hosts a given
// resource name, so future runs bias discovery toward it.
func (idx *Index) RecordAdapterForResource(resourceName, adapterName string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.adapterLookup[strings.ToLower(resourceName)] = adapterName
	idx.saveLookupTable()
}

// AdapterForResource returns the adapter previously recorded for a
// resource name, if any.
func (idx *Index) AdapterForResource(resourceName string) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	name, ok := idx.adapterLookup[strings.ToLower(resourceName)]
	return name, ok
}

// MergeDiscoveredResource folds one resource yielded by an extension's
// Discover capability into the index. Extension discovery failures are
// non-fatal to the overall refresh, so callers invoke this best-effort
// per line of extension stdout.
func (idx *Index) MergeDiscoveredResource(r manifest.Resource) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.indexResource(r, false)
	idx.sortAll()
}

// Extensions returns a snapshot of every discovered extension.
func (idx *Index) Extensions() []manifest.Extension {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]manifest.Extension, 0, len(idx.extensions))
	for _, e := range idx.extensions {
		out = append(out, e)
	}
	return out
}

// ExtensionsWithCapability returns every discovered extension offering the
// given capability.
func (idx *Index) ExtensionsWithCapability(cap manifest.ExtensionCapability) []manifest.Extension {
	var out []manifest.Extension
	for _, e := range idx.Extensions() {
		if e.HasCapability(cap) {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks a Filter resolves; used by Configurator construction to
// fail fast with ResourceNotFound before any invocation is attempted.
func (idx *Index) Validate(filters []Filter) error {
	for _, f := range filters {
		if _, err := idx.Find(f); err != nil {
			return err
		}
	}
	return nil
}

// SearchPaths returns the directories used by the most recent Refresh, so a
// caller can trigger a fresh rebuild (e.g. a document requesting
// DuringDeployment mode) without having to remember them separately.
func (idx *Index) SearchPaths() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]string{}, idx.searchPaths...)
}

// DebugString renders a short summary of index contents, useful in trace
// logging.
func (idx *Index) DebugString() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return fmt.Sprintf("resources=%d adapters=%d adaptedResources=%d extensions=%d",
		len(idx.resources), len(idx.adapters), len(idx.adaptedResources), len(idx.extensions))
}
