// Command sceneplay plays a scene in the terminal: it parses a sample
// generator response (or a response file passed as the first argument),
// fills in listener behavior, and renders every character's pose and
// incrementally revealed text live.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	orchestration "github.com/koscakluka/scene-core/core"
	"github.com/koscakluka/scene-core/core/gapfill"
	"github.com/koscakluka/scene-core/core/responses"
	"github.com/koscakluka/scene-core/core/scenes"
	"github.com/koscakluka/scene-core/core/scripted"
)

// sampleResponse is a compact-dialect response with a deliberately messy
// second entry, so the demo exercises the repair paths too.
const sampleResponse = "```json\n" + `{
  "d": 14000,
  "c": [
    {
      "n": "mira",
      "t": "So... I found the old observatory key. Lena, you are going to want to see this.",
      "tl": [
        {"a": "think", "d": 1500},
        {"a": "talk", "d": 4200, "k": 1, "v": {"c": "slow"}},
        {"a": "smile", "d": 1000}
      ]
    },
    {
      "n": "Lena ",
      "t": "[Lena]: You did WHAT? [Mira]: Relax, I borrowed it."
    }
  ]
}` + "\n```"

var participants = []scenes.Participant{
	{ID: "mira", Name: "Mira"},
	{ID: "lena", Name: "Lena"},
	{ID: "tomas", Name: "Tomas"},
}

const frameInterval = 33 * time.Millisecond

type tickMsg time.Time

type model struct {
	engine *orchestration.Engine
	width  int
}

func (m model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.engine.Stop()
			return m, tea.Quit
		case " ":
			if m.engine.Status() == orchestration.StatusPaused {
				m.engine.Resume()
			} else {
				m.engine.Pause()
			}
		}
	case tickMsg:
		m.engine.Tick()
		return m, tick()
	}
	return m, nil
}

var (
	nameStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	poseStyle   = lipgloss.NewStyle().Faint(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func (m model) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	view := statusStyle.Render(fmt.Sprintf("scene %s  (space pauses, q quits)", m.engine.Status())) + "\n\n"

	states := m.engine.CurrentStates()
	characters := make([]string, 0, len(states))
	for character := range states {
		characters = append(characters, character)
	}
	sort.Strings(characters)

	for _, character := range characters {
		state := states[character]
		header := fmt.Sprintf("%s  %s", nameStyle.Render(character), poseStyle.Render(describe(state)))
		view += header + "\n"
		if state.RevealedText != "" {
			view += wordwrap.String(state.RevealedText, width-2) + "\n"
		}
		view += "\n"
	}
	return view
}

func describe(state *scenes.CharacterState) string {
	description := string(state.Animation)
	if state.Pose.Gaze != "" {
		description += ", looking " + string(state.Pose.Gaze)
	}
	if state.IsTalking {
		description += ", talking"
	}
	if state.IsComplete {
		description += ", done"
	}
	return description
}

func main() {
	raw := sampleResponse
	if len(os.Args) > 1 {
		content, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read response:", err)
			os.Exit(1)
		}
		raw = string(content)
	}

	ctx := context.Background()
	scene, diagnostics, err := responses.Parse(ctx, raw, participants)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse failed, playing scripted fallback:", err)
		scene = scripted.Fallback(participants)
	}
	for _, diagnostic := range diagnostics {
		fmt.Fprintln(os.Stderr, "diagnostic:", diagnostic)
	}

	scene = gapfill.FillNonSpeakers(scene, participants)

	engine := orchestration.NewEngine()
	engine.Play(ctx, scene)

	if _, err := tea.NewProgram(model{engine: engine}).Run(); err != nil {
		fmt.Fprintln(os.Stderr, "sceneplay:", err)
		os.Exit(1)
	}
}
