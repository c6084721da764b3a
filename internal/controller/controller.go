// Package controller owns the script collection, the per-script run
// outputs and the UI state, and routes user actions to the service layer.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/metorial/script-admin/internal/events"
	"github.com/metorial/script-admin/internal/logging"
	"github.com/metorial/script-admin/internal/models"
	"github.com/metorial/script-admin/internal/service"
)

var (
	ErrNotFound        = errors.New("script not found")
	ErrUnknownCategory = errors.New("unknown category")
)

type Publisher interface {
	Publish(eventType string, data interface{})
}

type Options struct {
	Runner     service.Runner
	Persister  service.Persister
	Categories []models.Category
	Scripts    []models.Script
	Publisher  Publisher
	Logger     *zap.SugaredLogger
	// RunTimeout bounds runs started with StartRun. Zero means no limit.
	RunTimeout time.Duration
	// NewID generates ids for scripts saved without one.
	NewID func() string
}

const maxIDAttempts = 8

type FormState struct {
	Open    bool           `json:"open"`
	Editing *models.Script `json:"editing,omitempty"`
	// Draft holds the values of the last rejected submission.
	Draft *models.Script `json:"draft,omitempty"`
}

// State is a read-only copy of the controller state handed to views.
type State struct {
	Scripts          []models.Script      `json:"scripts"`
	Categories       []models.Category    `json:"categories"`
	SelectedCategory string               `json:"selected_category"`
	SelectedScript   *models.Script       `json:"selected_script,omitempty"`
	Output           *models.ScriptOutput `json:"output,omitempty"`
	Form             FormState            `json:"form"`
	Running          bool                 `json:"running"`
	Notice           string               `json:"notice,omitempty"`
}

type OutputEvent struct {
	ScriptID string              `json:"script_id"`
	Output   models.ScriptOutput `json:"output"`
}

type Controller struct {
	runner     service.Runner
	persister  service.Persister
	publisher  Publisher
	log        *zap.SugaredLogger
	runTimeout time.Duration
	now        func() time.Time
	newID      func() string

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu          sync.Mutex
	categories  []models.Category
	scripts     []models.Script
	selectedID  string
	outputs     map[string]models.ScriptOutput
	generations map[string]uint64
	nextGen     uint64
	inFlight    int
	form        FormState
	category    string
	notice      string
}

func New(opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Controller{
		runner:      opts.Runner,
		persister:   opts.Persister,
		publisher:   opts.Publisher,
		log:         log,
		runTimeout:  opts.RunTimeout,
		now:         time.Now,
		newID:       newID,
		baseCtx:     ctx,
		cancel:      cancel,
		categories:  append([]models.Category(nil), opts.Categories...),
		scripts:     append([]models.Script(nil), opts.Scripts...),
		outputs:     make(map[string]models.ScriptOutput),
		generations: make(map[string]uint64),
	}
}

// Close cancels background runs and waits for them to finish.
func (c *Controller) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		Scripts:          append([]models.Script{}, c.scripts...),
		Categories:       append([]models.Category{}, c.categories...),
		SelectedCategory: c.category,
		Running:          c.inFlight > 0,
		Notice:           c.notice,
		Form:             FormState{Open: c.form.Open},
	}

	if c.form.Editing != nil {
		editing := *c.form.Editing
		st.Form.Editing = &editing
	}
	if c.form.Draft != nil {
		draft := *c.form.Draft
		st.Form.Draft = &draft
	}

	if i := c.indexOf(c.selectedID); i >= 0 {
		selected := c.scripts[i]
		st.SelectedScript = &selected
		if out, ok := c.outputs[c.selectedID]; ok {
			clone := out.Clone()
			st.Output = &clone
		}
	}

	return st
}

func (c *Controller) Scripts() []models.Script {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Script{}, c.scripts...)
}

func (c *Controller) Categories() []models.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Category{}, c.categories...)
}

func (c *Controller) Script(id string) (models.Script, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		return c.scripts[i], true
	}
	return models.Script{}, false
}

// Output returns the latest output of the given script.
func (c *Controller) Output(id string) (models.ScriptOutput, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out, ok := c.outputs[id]
	if !ok {
		return models.ScriptOutput{}, false
	}
	return out.Clone(), true
}

func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight > 0
}

// Run selects the script, publishes a running placeholder and blocks until
// the runner returns. Runner failures become an exit code 1 output; the
// only error returned is ErrNotFound.
func (c *Controller) Run(ctx context.Context, id string) (models.ScriptOutput, error) {
	script, gen, _, err := c.beginRun(id)
	if err != nil {
		return models.ScriptOutput{}, err
	}
	return c.finishRun(ctx, script, gen), nil
}

// StartRun is Run without waiting: it returns the running placeholder and
// completes in the background.
func (c *Controller) StartRun(id string) (models.ScriptOutput, error) {
	script, gen, placeholder, err := c.beginRun(id)
	if err != nil {
		return models.ScriptOutput{}, err
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx := c.baseCtx
		if c.runTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.runTimeout)
			defer cancel()
		}
		c.finishRun(ctx, script, gen)
	}()

	return placeholder, nil
}

func (c *Controller) beginRun(id string) (models.Script, uint64, models.ScriptOutput, error) {
	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return models.Script{}, 0, models.ScriptOutput{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	script := c.scripts[i]

	start := c.now()
	placeholder := models.ScriptOutput{
		IsRunning: true,
		StartTime: &start,
	}

	c.selectedID = id
	c.outputs[id] = placeholder
	c.nextGen++
	gen := c.nextGen
	c.generations[id] = gen
	c.inFlight++
	c.mu.Unlock()

	c.log.Infow("run started", "script_id", id, "name", script.Name)
	c.publish(events.TypeOutput, OutputEvent{ScriptID: id, Output: placeholder.Clone()})

	return script, gen, placeholder.Clone(), nil
}

func (c *Controller) finishRun(ctx context.Context, script models.Script, gen uint64) models.ScriptOutput {
	defer func() {
		c.mu.Lock()
		c.inFlight--
		c.mu.Unlock()
	}()

	result, err := c.runner.Run(ctx, script)
	if err != nil {
		now := c.now()
		c.log.Warnw("run failed", "script_id", script.ID, "error", err)
		result = models.ScriptOutput{
			Stdout:    "",
			Stderr:    err.Error(),
			ExitCode:  models.IntPtr(1),
			IsRunning: false,
			StartTime: &now,
			EndTime:   models.TimePtr(now),
		}
	} else {
		result.IsRunning = false
		c.log.Infow("run finished", "script_id", script.ID, "exit_code", exitCode(result))
		c.record(ctx, script, result)
	}

	c.mu.Lock()
	current := c.generations[script.ID] == gen && c.indexOf(script.ID) >= 0
	if current {
		c.outputs[script.ID] = result
	}
	c.mu.Unlock()

	if current {
		c.publish(events.TypeOutput, OutputEvent{ScriptID: script.ID, Output: result.Clone()})
	} else {
		c.log.Debugw("discarding superseded run result", "script_id", script.ID)
	}

	return result.Clone()
}

func (c *Controller) record(ctx context.Context, script models.Script, out models.ScriptOutput) {
	recorder, ok := c.persister.(service.ExecutionRecorder)
	if !ok || out.StartTime == nil || out.EndTime == nil {
		return
	}

	exec := models.ScriptExecution{
		ScriptID:   script.ID,
		SHA256Hash: models.HashCommand(script.Command),
		ExitCode:   exitCode(out),
		Stdout:     out.Stdout,
		Stderr:     out.Stderr,
		StartedAt:  *out.StartTime,
		FinishedAt: *out.EndTime,
	}
	if err := recorder.RecordExecution(context.WithoutCancel(ctx), exec); err != nil {
		c.log.Errorw("failed to record execution", "script_id", script.ID, "error", err)
	}
}

// Save validates and persists the script, then replaces the record with the
// same id or appends it, and closes the form. A script without an id gets a
// fresh one. On failure the collection is left untouched and an open form
// keeps the submitted values.
func (c *Controller) Save(ctx context.Context, script models.Script) (models.Script, error) {
	submitted := script

	if err := script.Validate(); err != nil {
		c.reject(submitted, fmt.Sprintf("Invalid script: %v", err))
		return models.Script{}, err
	}

	c.mu.Lock()
	if script.Category == "" && len(c.categories) > 0 {
		script.Category = c.categories[0].ID
	}
	if len(c.categories) > 0 && !c.hasCategory(script.Category) {
		c.mu.Unlock()
		err := fmt.Errorf("%w: %s", ErrUnknownCategory, script.Category)
		c.reject(submitted, fmt.Sprintf("Invalid script: %v", err))
		return models.Script{}, err
	}
	if script.ID == "" {
		id, err := c.assignID()
		if err != nil {
			c.mu.Unlock()
			c.reject(submitted, fmt.Sprintf("Failed to save script: %v", err))
			return models.Script{}, err
		}
		script.ID = id
	}
	c.mu.Unlock()

	saved, err := c.persister.Save(ctx, script)
	if err != nil {
		c.log.Errorw("failed to save script", "script_id", script.ID, "error", err)
		c.reject(submitted, fmt.Sprintf("Failed to save script: %v", err))
		return models.Script{}, fmt.Errorf("save script: %w", err)
	}

	c.mu.Lock()
	if i := c.indexOf(saved.ID); i >= 0 {
		c.scripts[i] = saved
	} else {
		c.scripts = append(c.scripts, saved)
	}
	c.form = FormState{}
	c.notice = ""
	c.mu.Unlock()

	c.log.Infow("script saved", "script_id", saved.ID)
	c.publish(events.TypeScripts, saved)

	return saved, nil
}

// Delete removes the script once confirmed. Deleting the selected script
// clears the selection and its output.
func (c *Controller) Delete(ctx context.Context, id string, confirmed bool) (bool, error) {
	if !confirmed {
		return false, nil
	}

	if _, ok := c.Script(id); !ok {
		return false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if _, err := c.persister.Delete(ctx, id); err != nil {
		c.log.Errorw("failed to delete script", "script_id", id, "error", err)
		c.setNotice(fmt.Sprintf("Failed to delete script: %v", err))
		return false, fmt.Errorf("delete script: %w", err)
	}

	c.mu.Lock()
	if i := c.indexOf(id); i >= 0 {
		c.scripts = append(c.scripts[:i:i], c.scripts[i+1:]...)
	}
	delete(c.outputs, id)
	delete(c.generations, id)
	if c.selectedID == id {
		c.selectedID = ""
	}
	c.notice = ""
	c.mu.Unlock()

	c.log.Infow("script deleted", "script_id", id)
	c.publish(events.TypeScripts, map[string]string{"deleted": id})

	return true, nil
}

func (c *Controller) OpenAdd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = FormState{Open: true}
}

func (c *Controller) OpenEdit(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	editing := c.scripts[i]
	c.form = FormState{Open: true, Editing: &editing}
	return nil
}

// CancelForm closes the form and drops the in-progress edit.
func (c *Controller) CancelForm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = FormState{}
}

// SelectCategory sets the list filter. An empty id selects all scripts.
func (c *Controller) SelectCategory(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id != "" && !c.hasCategory(id) {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, id)
	}
	c.category = id
	return nil
}

func (c *Controller) ClearNotice() {
	c.setNotice("")
}

// reject keeps the submitted values on an open form and reports msg.
func (c *Controller) reject(submitted models.Script, msg string) {
	c.mu.Lock()
	if c.form.Open {
		c.form.Draft = &submitted
	}
	c.mu.Unlock()

	c.setNotice(msg)
}

// assignID returns a generated id not used by any script. Callers hold c.mu.
func (c *Controller) assignID() (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		if id := c.newID(); id != "" && c.indexOf(id) < 0 {
			return id, nil
		}
	}
	return "", errors.New("could not assign a unique script id")
}

func (c *Controller) setNotice(msg string) {
	c.mu.Lock()
	c.notice = msg
	c.mu.Unlock()

	if msg != "" {
		c.publish(events.TypeNotice, msg)
	}
}

func (c *Controller) publish(eventType string, data interface{}) {
	if c.publisher != nil {
		c.publisher.Publish(eventType, data)
	}
}

func (c *Controller) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range c.scripts {
		if c.scripts[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) hasCategory(id string) bool {
	for _, cat := range c.categories {
		if cat.ID == id {
			return true
		}
	}
	return false
}

func exitCode(out models.ScriptOutput) int {
	if out.ExitCode == nil {
		return -1
	}
	return *out.ExitCode
}
