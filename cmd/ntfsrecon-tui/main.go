// Command ntfsrecon-tui is an interactive browser over a reconstructed
// NTFS partition tree, restyled from the teacher's device/carve wizard
// (cmd/recover-tui) into a tree-navigation-and-restore wizard: take the
// first recovered partition, walk its directory tree with the bubbles list component,
// and restore the selected subtree to disk.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/shubham/ntfsrecon/internal/disk"
	"github.com/shubham/ntfsrecon/internal/ntfs"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	ghostStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Italic(true)
	lostStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8700"))
	deletedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00D700")).Bold(true)
)

// item is one row in the tree browser's visible list: a file and the
// depth it's rendered at (bubbles' list wants a flat []list.Item, so
// the tree is flattened once when the model is built rather than rendered as a
// real tree widget).
type item struct {
	file  *ntfs.File
	depth int
}

func (i item) Title() string {
	name := i.file.DisplayName()
	indent := ""
	for n := 0; n < i.depth; n++ {
		indent += "  "
	}
	switch {
	case i.file.Ghost:
		return indent + ghostStyle.Render(name+" (ghost)")
	case i.file.Orphan:
		return indent + lostStyle.Render(name + " (lost)")
	case i.file.IsDeleted:
		return indent + deletedStyle.Render(name+" (deleted)")
	default:
		return indent + name
	}
}

func (i item) Description() string {
	if i.file.IsDirectory {
		return fmt.Sprintf("directory · %d entries", len(i.file.Children))
	}
	return fmt.Sprintf("file · %s · %s", i.file.Index, humanize.Bytes(i.file.RealSize))
}

func (i item) FilterValue() string { return i.file.DisplayName() }

type model struct {
	img      *disk.Image
	part     *ntfs.Partition
	list     list.Model
	status   string
	outDir   string
	quitting bool
}

func newModel(img *disk.Image, part *ntfs.Partition, outDir string) model {
	items := flatten(part.Root, 0)
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = fmt.Sprintf("NTFS partition @ sector %d (recoverable=%v)", part.Offset/ntfs.SectorSize, part.Recoverable)
	l.Styles.Title = titleStyle
	return model{img: img, part: part, list: l, outDir: outDir}
}

// flatten walks node's subtree depth-first, skipping the root itself,
// producing the same order a full-tree listing would print.
func flatten(node *ntfs.File, depth int) []list.Item {
	var out []list.Item
	if node == nil {
		return out
	}
	for _, name := range node.SortedChildNames() {
		child := node.Children[name]
		out = append(out, item{file: child, depth: depth})
		if child.IsDirectory {
			out = append(out, flatten(child, depth+1)...)
		}
	}
	return out
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			return m.restoreSelected()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) restoreSelected() (tea.Model, tea.Cmd) {
	sel, ok := m.list.SelectedItem().(item)
	if !ok {
		return m, nil
	}
	dest := filepath.Join(m.outDir, sel.file.DisplayName())
	if err := ntfs.RestoreTree(m.img, m.part, sel.file, dest); err != nil {
		m.status = fmt.Sprintf("restore failed: %v", err)
	} else {
		m.status = fmt.Sprintf("restored %s -> %s", sel.file.FullPath(), dest)
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	footer := helpStyle.Render("↑/↓ navigate · enter restore selection · q quit")
	if m.status != "" {
		footer = statusStyle.Render(m.status) + "\n" + footer
	}
	return m.list.View() + "\n" + footer
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: ntfsrecon-tui <image> [output-dir]")
		os.Exit(1)
	}
	imagePath := os.Args[1]
	outDir := "./recovered"
	if len(os.Args) > 2 {
		outDir = os.Args[2]
	}

	img, err := disk.Open(imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open image: %v\n", err)
		os.Exit(1)
	}
	defer img.Close()

	recon := ntfs.GetPartitions(img)
	if len(recon.Partitions) == 0 {
		fmt.Println("no NTFS partitions found")
		return
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
		os.Exit(1)
	}

	m := newModel(img, recon.Partitions[0], outDir)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tui error: %v\n", err)
		os.Exit(1)
	}
}
