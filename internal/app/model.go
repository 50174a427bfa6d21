package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwulff/chime/internal/audio"
	"github.com/jwulff/chime/internal/clock"
	"github.com/jwulff/chime/internal/config"
	"github.com/jwulff/chime/internal/feature"
	"github.com/jwulff/chime/internal/notify"
	"github.com/jwulff/chime/internal/reminder"
	"github.com/jwulff/chime/internal/trigger"

	tea "github.com/charmbracelet/bubbletea"
)

// Tab selects the visible feature.
type Tab int

const (
	TabAlarm Tab = iota
	TabTimer
	TabCalendar
)

var tabNames = [...]string{"ALARM", "TIMER", "CALENDAR"}

const toastTimeout = 4 * time.Second

// Options wires the model to its devices and store.
type Options struct {
	Clock        clock.Clock
	Microphone   audio.Microphone
	Player       feature.Player
	Store        *reminder.Store
	Notifier     notify.Notifier
	Logger       *slog.Logger
	MimeType     string
	AlarmPoll    time.Duration
	TimerPoll    time.Duration
	TimerDefault time.Duration
}

type toast struct {
	id       int
	title    string
	body     string
	severity notify.Severity
}

// reminderForm is the add-reminder dialog on the calendar tab.
type reminderForm struct {
	field  int // 0 time, 1 note
	digits string
	note   string
}

// Model is the root bubbletea model for the chime TUI.
type Model struct {
	clock    clock.Clock
	player   feature.Player
	store    *reminder.Store
	notifier notify.Notifier
	logger   *slog.Logger

	alarmPoll time.Duration
	timerPoll time.Duration

	// One capture session per feature over a shared, exclusive microphone.
	sessions   [3]*audio.CaptureSession
	recordings [3]*audio.Asset
	busy       [3]bool

	// Alarm
	alarm       *feature.Controller
	alarmDigits string

	// Timer
	timer       *feature.Controller
	timerTarget time.Duration
	timerCustom bool
	timerGen    int

	// Calendar
	book      *reminder.Book
	selected  clock.Date
	reminders []reminder.Reminder
	marks     map[clock.Date]int
	cursor    int
	form      *reminderForm

	// UI state
	tab      Tab
	now      time.Time
	width    int
	height   int
	toast    *toast
	toastSeq int
	quitting bool
}

// New creates a Model on the alarm tab.
func New(opts Options) Model {
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.AlarmPoll <= 0 {
		opts.AlarmPoll = time.Second
	}
	if opts.TimerPoll <= 0 {
		opts.TimerPoll = 10 * time.Millisecond
	}
	if opts.TimerDefault <= 0 {
		opts.TimerDefault = 60 * time.Second
	}

	mic := audio.Exclusive(opts.Microphone)
	capture := audio.CaptureOptions{MimeType: opts.MimeType, Logger: opts.Logger}
	now := opts.Clock.Now()

	m := Model{
		clock:       opts.Clock,
		player:      opts.Player,
		store:       opts.Store,
		notifier:    opts.Notifier,
		logger:      opts.Logger,
		alarmPoll:   opts.AlarmPoll,
		timerPoll:   opts.TimerPoll,
		alarm:       feature.New(feature.KindAlarm, opts.Player, feature.Options{Logger: opts.Logger}),
		timer:       feature.New(feature.KindTimer, opts.Player, feature.Options{Logger: opts.Logger}),
		timerTarget: clampTarget(opts.TimerDefault),
		book:        reminder.NewBook(opts.Store, opts.Player, opts.Logger),
		selected:    clock.DateOf(now),
		now:         now,
	}
	for i := range m.sessions {
		m.sessions[i] = audio.NewCaptureSession(mic, capture)
	}
	return m
}

// Init starts the clock tick and loads today's reminders.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		clockTickCmd(m.alarmPoll),
		loadRemindersCmd(m.store, m.selected),
	)
}

func clockTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return ClockTickMsg{At: t}
	})
}

func timerTickCmd(gen int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return TimerTickMsg{Gen: gen}
	})
}

func clearToastCmd(id int) tea.Cmd {
	return tea.Tick(toastTimeout, func(time.Time) tea.Msg {
		return ClearToastMsg{ID: id}
	})
}

// startCaptureCmd acquires the microphone off the update loop.
func startCaptureCmd(target captureTarget, s *audio.CaptureSession) tea.Cmd {
	return func() tea.Msg {
		return CaptureStartedMsg{Target: target, Err: s.Start(context.Background())}
	}
}

// stopCaptureCmd releases the microphone and waits for the clip.
func stopCaptureCmd(target captureTarget, s *audio.CaptureSession) tea.Cmd {
	return func() tea.Msg {
		asset, err := s.Stop()
		return CaptureStoppedMsg{Target: target, Asset: asset, Err: err}
	}
}

func playCmd(player feature.Player, what string, asset *audio.Asset) tea.Cmd {
	return func() tea.Msg {
		return PlaybackDoneMsg{What: what, Err: player.Play(context.Background(), asset)}
	}
}

// loadRemindersCmd reads the selected date's reminders and the month's
// marks from the store.
func loadRemindersCmd(store *reminder.Store, date clock.Date) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		list, err := store.ForDate(ctx, date)
		if err != nil {
			return RemindersLoadedMsg{Date: date, Err: err}
		}
		first := clock.Date{Year: date.Year, Month: date.Month, Day: 1}
		last := first.AddDays(clock.DaysIn(date.Year, date.Month) - 1)
		marks, err := store.DatesWithReminders(ctx, first, last)
		return RemindersLoadedMsg{Date: date, Reminders: list, Marks: marks, Err: err}
	}
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ClockTickMsg:
		if m.quitting {
			return m, nil
		}
		cmd := m.tickClock()
		return m, tea.Batch(cmd, clockTickCmd(m.alarmPoll))

	case TimerTickMsg:
		if m.quitting || msg.Gen != m.timerGen || !m.timer.Armed() || m.timer.Paused() {
			return m, nil
		}
		m.now = m.clock.Now()
		if ev, fired := m.timer.Tick(context.Background(), m.now); fired {
			return m, m.fired(ev, "Time's up", fmt.Sprintf("%s elapsed", formatTarget(m.timerTarget)))
		}
		return m, timerTickCmd(m.timerGen, m.timerPoll)

	case CaptureStartedMsg:
		m.busy[msg.Target] = false
		if errors.Is(msg.Err, audio.ErrCaptureClosed) {
			return m, nil
		}
		if msg.Err != nil {
			return m, m.notify("Recording failed", msg.Err.Error(), notify.Destructive)
		}
		// The owner went away while the microphone was opening.
		if m.quitting || (msg.Target == captureReminder && m.form == nil) {
			m.sessions[msg.Target].Close()
		}
		return m, nil

	case CaptureStoppedMsg:
		m.busy[msg.Target] = false
		if msg.Err != nil {
			return m, m.notify("Recording failed", msg.Err.Error(), notify.Destructive)
		}
		if !msg.Asset.Valid() {
			return m, m.notify("Nothing recorded", "the microphone produced no audio", notify.Destructive)
		}
		m.recordings[msg.Target] = msg.Asset
		if msg.Target == captureTimer {
			m.timerCustom = true
		}
		return m, m.notify("Recorded", fmt.Sprintf("%s message, %s", msg.Target, formatBytes(msg.Asset.Size())), notify.Info)

	case PlaybackDoneMsg:
		if msg.Err != nil {
			return m, m.notify("Playback failed", msg.Err.Error(), notify.Destructive)
		}
		return m, nil

	case RemindersLoadedMsg:
		if msg.Err != nil {
			return m, m.notify("Reminders unavailable", msg.Err.Error(), notify.Destructive)
		}
		if !msg.Date.Equal(m.selected) {
			return m, nil
		}
		m.reminders = msg.Reminders
		m.marks = msg.Marks
		if m.cursor >= len(m.reminders) {
			m.cursor = max(0, len(m.reminders)-1)
		}
		return m, nil

	case ClearToastMsg:
		if m.toast != nil && m.toast.id == msg.ID {
			m.toast = nil
		}
		return m, nil
	}

	return m, nil
}

// tickClock advances the header clock and evaluates the alarm and every
// pending reminder.
func (m *Model) tickClock() tea.Cmd {
	ctx := context.Background()
	m.now = m.clock.Now()

	var cmds []tea.Cmd
	if ev, fired := m.alarm.Tick(ctx, m.now); fired {
		cmds = append(cmds, m.fired(ev, "Alarm", m.alarmLabel()))
	}

	events := m.book.Tick(ctx, m.now)
	for _, ev := range events {
		body := "reminder"
		if r, err := m.store.Get(ctx, ev.Name); err == nil && r != nil {
			body = r.Time
			if r.Note != "" {
				body += " " + r.Note
			}
		}
		cmds = append(cmds, m.fired(ev, "Reminder", body))
	}
	if len(events) > 0 {
		cmds = append(cmds, loadRemindersCmd(m.store, m.selected))
	}
	for _, ev := range m.book.Drain() {
		m.logger.Debug("reminder event", "event", ev.Type, "id", ev.Name)
	}
	return tea.Batch(cmds...)
}

// fired surfaces a controller fire. A playback failure becomes a
// destructive toast; the controller is already disarmed either way.
func (m *Model) fired(ev feature.Event, title, body string) tea.Cmd {
	if ev.Err != nil {
		return m.notify(title+": playback failed", ev.Err.Error(), notify.Destructive)
	}
	return m.notify(title, body, notify.Info)
}

// notify shows a toast and forwards it to the configured notifier.
func (m *Model) notify(title, body string, severity notify.Severity) tea.Cmd {
	m.notifier.Notify(title, body, severity)
	m.toastSeq++
	m.toast = &toast{id: m.toastSeq, title: title, body: body, severity: severity}
	return clearToastCmd(m.toastSeq)
}

// toggleCapture starts or stops recording for target.
func (m *Model) toggleCapture(target captureTarget) tea.Cmd {
	if m.busy[target] {
		return nil
	}
	s := m.sessions[target]
	m.busy[target] = true
	if s.Recording() {
		return stopCaptureCmd(target, s)
	}
	return startCaptureCmd(target, s)
}

// shutdown stops all scheduling and releases the microphone.
func (m *Model) shutdown() {
	m.quitting = true
	m.timerGen++
	m.Close()
}

// Close releases every microphone handle. It is safe to call again after
// the program exits, to catch a capture that was still starting.
func (m Model) Close() {
	for _, s := range m.sessions {
		if err := s.Close(); err != nil {
			m.logger.Warn("close capture session", "err", err)
		}
	}
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == KeyCtrlC {
		m.shutdown()
		return m, tea.Quit
	}
	if m.form != nil {
		return m.handleFormKey(key, msg)
	}

	switch key {
	case KeyQuit, KeyQuitUpper:
		m.shutdown()
		return m, tea.Quit
	case KeyTab:
		m.tab = (m.tab + 1) % Tab(len(tabNames))
		return m, nil
	case KeyShiftTab:
		m.tab = (m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames))
		return m, nil
	}

	switch m.tab {
	case TabAlarm:
		return m.handleAlarmKey(key)
	case TabTimer:
		return m.handleTimerKey(key)
	default:
		return m.handleCalendarKey(key)
	}
}

func (m Model) handleAlarmKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case KeyRecord:
		if m.alarm.Armed() {
			return m, m.notify("Alarm is set", "cancel it before recording a new message", notify.Destructive)
		}
		return m, m.toggleCapture(captureAlarm)

	case KeyPlay:
		if m.recordings[captureAlarm] == nil {
			return m, m.notify("No recording", "press r to record the alarm message", notify.Destructive)
		}
		return m, playCmd(m.player, "alarm", m.recordings[captureAlarm])

	case KeyBackspace:
		if !m.alarm.Armed() && len(m.alarmDigits) > 0 {
			m.alarmDigits = m.alarmDigits[:len(m.alarmDigits)-1]
		}
		return m, nil

	case KeyEnter:
		now := m.clock.Now()
		if m.alarm.Armed() {
			m.alarm.Disarm(now)
			return m, m.notify("Alarm cancelled", "", notify.Info)
		}
		if m.sessions[captureAlarm].Recording() || m.busy[captureAlarm] {
			return m, m.notify("Still recording", "stop the recording before setting the alarm", notify.Destructive)
		}
		hhmm, ok := digitsToClock(m.alarmDigits)
		if !ok {
			return m, m.notify("Invalid time", "enter four digits, HHMM", notify.Destructive)
		}
		hour, minute, err := trigger.ParseClock(hhmm)
		if err == nil {
			err = m.alarm.Arm(now, trigger.NewWallClock(hour, minute), m.recordings[captureAlarm])
		}
		if err != nil {
			return m, m.notify("Alarm not set", err.Error(), notify.Destructive)
		}
		return m, m.notify("Alarm set", m.alarmLabel(), notify.Info)
	}

	if isDigit(key) && !m.alarm.Armed() && len(m.alarmDigits) < 4 {
		m.alarmDigits += key
	}
	return m, nil
}

func (m Model) handleTimerKey(key string) (tea.Model, tea.Cmd) {
	now := m.clock.Now()
	armed := m.timer.Armed()

	switch key {
	case KeyTargetUp, KeyTargetUpAlt:
		if !armed {
			m.timerTarget = clampTarget(m.timerTarget + config.TimerStepSeconds*time.Second)
		}
		return m, nil

	case KeyTargetDown:
		if !armed {
			m.timerTarget = clampTarget(m.timerTarget - config.TimerStepSeconds*time.Second)
		}
		return m, nil

	case KeySpace:
		switch {
		case !armed:
			var asset *audio.Asset
			if m.timerCustom {
				asset = m.recordings[captureTimer]
			}
			if err := m.timer.Arm(now, trigger.NewElapsed(m.timerTarget), asset); err != nil {
				return m, m.notify("Timer not started", err.Error(), notify.Destructive)
			}
		case m.timer.Paused():
			m.timer.Resume(now)
		default:
			m.timer.Pause(now)
			m.timerGen++
			return m, nil
		}
		m.timerGen++
		return m, timerTickCmd(m.timerGen, m.timerPoll)

	case KeyReset:
		m.timer.Disarm(now)
		m.timerGen++
		return m, nil

	case KeyCustom:
		if m.recordings[captureTimer] == nil {
			m.timerCustom = false
			return m, m.notify("No recording", "press r to record a custom sound", notify.Destructive)
		}
		m.timerCustom = !m.timerCustom
		return m, nil

	case KeyRecord:
		return m, m.toggleCapture(captureTimer)

	case KeyDelete:
		if m.sessions[captureTimer].Recording() {
			return m, nil
		}
		m.recordings[captureTimer] = nil
		m.timerCustom = false
		return m, nil

	case KeyPlay:
		var asset *audio.Asset
		if m.timerCustom {
			asset = m.recordings[captureTimer]
		}
		return m, playCmd(m.player, "timer", asset)
	}
	return m, nil
}

func (m Model) handleCalendarKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case KeyLeft, KeyH:
		return m.selectDate(m.selected.AddDays(-1))
	case KeyRight, KeyL:
		return m.selectDate(m.selected.AddDays(1))
	case KeyUp, KeyK:
		return m.selectDate(m.selected.AddDays(-7))
	case KeyDown, KeyJ:
		return m.selectDate(m.selected.AddDays(7))
	case KeyPrevMonth:
		return m.selectDate(m.selected.AddMonths(-1))
	case KeyNextMonth:
		return m.selectDate(m.selected.AddMonths(1))

	case KeyListDown:
		if m.cursor < len(m.reminders)-1 {
			m.cursor++
		}
		return m, nil
	case KeyListUp:
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case KeyNew:
		m.form = &reminderForm{}
		m.recordings[captureReminder] = nil
		return m, nil

	case KeyPlay:
		if m.cursor >= len(m.reminders) {
			return m, nil
		}
		r := m.reminders[m.cursor]
		return m, playCmd(m.player, "reminder", r.Asset)
	}
	return m, nil
}

func (m Model) selectDate(d clock.Date) (tea.Model, tea.Cmd) {
	m.selected = d
	m.cursor = 0
	return m, loadRemindersCmd(m.store, d)
}

func (m Model) handleFormKey(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	switch key {
	case KeyEsc:
		m.sessions[captureReminder].Close()
		m.recordings[captureReminder] = nil
		m.form = nil
		return m, nil

	case KeyTab, KeyShiftTab:
		f.field = 1 - f.field
		return m, nil

	case KeyFormRecord:
		return m, m.toggleCapture(captureReminder)

	case KeyBackspace:
		if f.field == 0 && len(f.digits) > 0 {
			f.digits = f.digits[:len(f.digits)-1]
		} else if f.field == 1 && len(f.note) > 0 {
			runes := []rune(f.note)
			f.note = string(runes[:len(runes)-1])
		}
		return m, nil

	case KeyEnter:
		return m.saveReminder()
	}

	if f.field == 0 {
		if isDigit(key) && len(f.digits) < 4 {
			f.digits += key
		}
		return m, nil
	}
	switch msg.Type {
	case tea.KeySpace:
		f.note += " "
	case tea.KeyRunes:
		f.note += string(msg.Runes)
	}
	return m, nil
}

func (m Model) saveReminder() (tea.Model, tea.Cmd) {
	if m.sessions[captureReminder].Recording() || m.busy[captureReminder] {
		return m, m.notify("Still recording", "stop the recording before saving", notify.Destructive)
	}
	hhmm, _ := digitsToClock(m.form.digits)
	r, err := m.book.Add(context.Background(), m.clock.Now(), m.selected, hhmm, m.form.note, m.recordings[captureReminder])
	if err != nil {
		return m, m.notify("Reminder not saved", err.Error(), notify.Destructive)
	}
	m.form = nil
	m.recordings[captureReminder] = nil
	return m, tea.Batch(
		m.notify("Reminder added", r.Date.String()+" "+r.Time, notify.Info),
		loadRemindersCmd(m.store, m.selected),
	)
}

func (m Model) alarmLabel() string {
	if wc, ok := m.alarm.Trigger().(*trigger.WallClock); ok {
		return wc.String()
	}
	return ""
}

func isDigit(key string) bool {
	return len(key) == 1 && key[0] >= '0' && key[0] <= '9'
}

// digitsToClock turns "0730" into "07:30".
func digitsToClock(digits string) (string, bool) {
	if len(digits) != 4 {
		return "", false
	}
	return digits[:2] + ":" + digits[2:], true
}

func clampTarget(d time.Duration) time.Duration {
	lo := config.TimerMinSeconds * time.Second
	hi := config.TimerMaxSeconds * time.Second
	d = max(lo, min(hi, d))
	step := config.TimerStepSeconds * time.Second
	return d / step * step
}
