package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwulff/chime/internal/clock"
	"github.com/jwulff/chime/internal/control"
)

func init() {
	status := &cobra.Command{
		Use:   "status",
		Short: "Show the daemon's alarm, timer and reminder state",
		Args:  cobra.NoArgs,
		Run:   runStatus,
	}
	status.Flags().Bool("json", false, "Print the full JSON response")
	RootCmd.AddCommand(status)

	alarm := &cobra.Command{Use: "alarm", Short: "Control the daemon's alarm"}
	alarmSet := &cobra.Command{
		Use:   "set HH:MM",
		Short: "Arm the alarm for the next occurrence of HH:MM",
		Args:  cobra.ExactArgs(1),
		Run:   runAlarmSet,
	}
	alarmSet.Flags().String("sound", "", "Recorded message to play (required)")
	alarmSet.MarkFlagRequired("sound")
	alarm.AddCommand(alarmSet, &cobra.Command{
		Use:   "cancel",
		Short: "Disarm the alarm",
		Args:  cobra.NoArgs,
		Run:   simpleCall(control.CmdCancelAlarm),
	})
	RootCmd.AddCommand(alarm)

	timer := &cobra.Command{Use: "timer", Short: "Control the daemon's timer"}
	timerStart := &cobra.Command{
		Use:   "start SECONDS",
		Short: "Start the timer counting up to SECONDS",
		Args:  cobra.ExactArgs(1),
		Run:   runTimerStart,
	}
	timerStart.Flags().String("sound", "", "Recorded message to play (default: the default sound)")
	timer.AddCommand(timerStart,
		&cobra.Command{Use: "pause", Short: "Pause the running timer", Args: cobra.NoArgs, Run: simpleCall(control.CmdPauseTimer)},
		&cobra.Command{Use: "resume", Short: "Resume the paused timer", Args: cobra.NoArgs, Run: simpleCall(control.CmdResumeTimer)},
		&cobra.Command{Use: "reset", Short: "Stop the timer and clear elapsed time", Args: cobra.NoArgs, Run: simpleCall(control.CmdResetTimer)},
	)
	RootCmd.AddCommand(timer)

	remind := &cobra.Command{Use: "remind", Short: "Manage the daemon's dated reminders"}
	remindAdd := &cobra.Command{
		Use:   "add YYYY-MM-DD HH:MM",
		Short: "Add a reminder that plays on the given date and time",
		Args:  cobra.ExactArgs(2),
		Run:   runRemindAdd,
	}
	remindAdd.Flags().String("sound", "", "Recorded message to play (required)")
	remindAdd.Flags().StringP("note", "n", "", "Optional note")
	remindAdd.MarkFlagRequired("sound")
	remind.AddCommand(remindAdd,
		&cobra.Command{
			Use:   "list [YYYY-MM-DD]",
			Short: "List reminders for a date (default: today)",
			Args:  cobra.MaximumNArgs(1),
			Run:   runRemindList,
		},
		&cobra.Command{
			Use:   "play ID",
			Short: "Play a reminder's recording now",
			Args:  cobra.ExactArgs(1),
			Run:   runRemindPlay,
		},
	)
	RootCmd.AddCommand(remind)

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Stream feature events from the daemon",
		Args:  cobra.NoArgs,
		Run:   runWatch,
	}
	watch.Flags().StringP("events", "e", "", "Comma-separated event types to show (default: all)")
	RootCmd.AddCommand(watch)
}

func dial() *control.Client {
	cfg := loadConfig()
	c, err := control.Connect(cfg.SocketPath)
	if err != nil {
		exitErr("connect", fmt.Errorf("%w (is `chime daemon` running?)", err))
	}
	return c
}

func call(cmd control.Command) control.Response {
	c := dial()
	defer c.Close()
	resp, err := c.Call(cmd)
	if err != nil {
		exitErr(cmd.Cmd, err)
	}
	return resp
}

func simpleCall(name string) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		call(control.Command{Cmd: name})
		fmt.Println("ok")
	}
}

// absSound resolves a --sound path against the caller's working directory
// since the daemon may run elsewhere.
func absSound(cmd *cobra.Command) string {
	sound, _ := cmd.Flags().GetString("sound")
	if sound == "" {
		return ""
	}
	abs, err := filepath.Abs(sound)
	if err != nil {
		exitErr("resolve sound path", err)
	}
	return abs
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitErr("marshal", err)
	}
	fmt.Println(string(out))
}

func runStatus(cmd *cobra.Command, args []string) {
	asJSON, _ := cmd.Flags().GetBool("json")
	resp := call(control.Command{Cmd: control.CmdStatus})
	if asJSON {
		printJSON(resp)
		return
	}
	fmt.Println(resp.Status)
}

func runAlarmSet(cmd *cobra.Command, args []string) {
	call(control.Command{Cmd: control.CmdSetAlarm, Time: args[0], Sound: absSound(cmd)})
	fmt.Printf("alarm set for %s\n", args[0])
}

func runTimerStart(cmd *cobra.Command, args []string) {
	secs, err := strconv.Atoi(args[0])
	if err != nil || secs <= 0 {
		exitErr("timer start", errors.New("SECONDS must be a positive integer"))
	}
	call(control.Command{Cmd: control.CmdStartTimer, Seconds: control.IntPtr(secs), Sound: absSound(cmd)})
	fmt.Printf("timer started for %s\n", time.Duration(secs)*time.Second)
}

func runRemindAdd(cmd *cobra.Command, args []string) {
	note, _ := cmd.Flags().GetString("note")
	resp := call(control.Command{
		Cmd:   control.CmdAddReminder,
		Date:  args[0],
		Time:  args[1],
		Note:  note,
		Sound: absSound(cmd),
	})
	printJSON(resp.Reminder)
}

func runRemindList(cmd *cobra.Command, args []string) {
	date := clock.DateOf(time.Now()).String()
	if len(args) > 0 {
		date = args[0]
	}
	resp := call(control.Command{Cmd: control.CmdListReminders, Date: date})
	if resp.Reminders == nil {
		resp.Reminders = []control.ReminderInfo{}
	}
	printJSON(resp.Reminders)
}

func runRemindPlay(cmd *cobra.Command, args []string) {
	call(control.Command{Cmd: control.CmdPlayReminder, ID: args[0]})
	fmt.Println("ok")
}

func runWatch(cmd *cobra.Command, args []string) {
	filter, _ := cmd.Flags().GetString("events")
	var events []string
	for _, ev := range strings.Split(filter, ",") {
		if ev = strings.TrimSpace(ev); ev != "" {
			events = append(events, ev)
		}
	}

	c := dial()
	defer c.Close()
	if _, err := c.Call(control.Command{Cmd: control.CmdSubscribe, Events: events}); err != nil {
		exitErr("subscribe", err)
	}

	for {
		ev, err := c.ReadEvent()
		if err != nil {
			if errors.Is(err, control.ErrClosed) {
				return
			}
			exitErr("watch", err)
		}
		line := fmt.Sprintf("%s %s %s", ev.At, ev.Kind, ev.Event)
		if ev.Name != "" && ev.Name != ev.Kind {
			line += " " + ev.Name
		}
		if ev.Message != "" {
			line += ": " + ev.Message
		}
		fmt.Println(line)
	}
}
