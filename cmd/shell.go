package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kamusis/imgrepo-cli/internal/features"
	"github.com/kamusis/imgrepo-cli/internal/repo"
)

// Shell commands. Queries for the two searches are read from the next line.
const (
	cmdSearchText   = "search text"
	cmdSearchImages = "search images"
	cmdReturn       = "return"
	cmdReturnHome   = "return home"
	cmdCheck        = "check for corruption"
	cmdList         = "list"
	cmdClusters     = "clusters"
	cmdHelp         = "help"
	cmdQuit         = "quit"
	cmdExit         = "exit"
)

const msgAtRoot = "Already at original image repository, cannot return back further"

type pendingInput int

const (
	pendingNone pendingInput = iota
	pendingText
	pendingImage
)

// shell is the line-oriented navigation loop over a view tree. It holds the
// current view; searches replace it with their result and return/return home
// walk back toward the root.
type shell struct {
	view    *repo.View
	pending pendingInput
}

func newShell(root *repo.View) *shell {
	return &shell{view: root}
}

// run reads commands from in until EOF or quit.
func (s *shell) run(in io.Reader) error {
	printUsage()
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if !s.handle(sc.Text()) {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("cannot read command: %w", err)
	}
	return nil
}

// handle executes one input line and reports whether the loop should go on.
func (s *shell) handle(line string) bool {
	line = strings.TrimSpace(line)

	switch s.pending {
	case pendingText:
		s.pending = pendingNone
		s.searchText(line)
		return true
	case pendingImage:
		s.pending = pendingNone
		s.searchImage(line)
		return true
	}

	switch line {
	case "":
	case cmdSearchText:
		s.pending = pendingText
		printInfo("", "Type the query text string you wish to search with")
	case cmdSearchImages:
		s.pending = pendingImage
		printInfo("", "Type the path to the image you wish to search with")
	case cmdReturn:
		s.back()
	case cmdReturnHome:
		s.home()
	case cmdCheck:
		s.checkCorruption()
	case cmdList:
		s.list()
	case cmdClusters:
		s.clusters()
	case cmdHelp:
		printUsage()
	case cmdQuit, cmdExit:
		return false
	default:
		printWarn("", fmt.Sprintf("Command not recognized: %q. Type \"help\" for the list of commands", line))
	}
	return true
}

func (s *shell) searchText(query string) {
	printInfo("", fmt.Sprintf("Searching image repository based on text query: %q", query))
	next, err := s.view.TextSearch(query)
	s.report(next, err)
}

func (s *shell) searchImage(path string) {
	printInfo("", fmt.Sprintf("Searching image repository for images similar to %s", path))
	next, err := s.view.ImageSearch(path)
	s.report(next, err)
}

// report prints a search outcome and moves to the resulting view.
func (s *shell) report(next *repo.View, err error) {
	switch {
	case errors.Is(err, repo.ErrNoMatch):
		printMiss("", "No search results found")
	case errors.Is(err, repo.ErrEmptyRepository):
		printWarn("", "The current view has no images, image search is disabled")
	case errors.Is(err, features.ErrInvalidImage):
		printErr("", fmt.Sprintf("Query image is not valid: %v", err))
	case err != nil:
		printErr("", err.Error())
	default:
		printOK("", fmt.Sprintf("%d search result(s):", next.Len()))
		printPaths(next.Images())
		printInfo("", fmt.Sprintf("You are now in view #%d (depth %d) containing only the above results", next.ID(), next.Depth()))
	}
	s.view = next
}

func (s *shell) back() {
	parent, ok := s.view.Parent()
	if !ok {
		printWarn("", msgAtRoot)
		return
	}
	s.view = parent
	printOK("", fmt.Sprintf("Back to previous view #%d:", parent.ID()))
	printPaths(parent.Images())
}

func (s *shell) home() {
	if s.view.IsRoot() {
		printWarn("", msgAtRoot)
		return
	}
	s.view = s.view.Home()
	printOK("", "At original image repository")
}

func (s *shell) checkCorruption() {
	found := s.view.CheckForCorruption()
	if len(found) == 0 {
		printOK("", fmt.Sprintf("No corrupted images among %d checked", s.view.Len()))
		return
	}
	for _, c := range found {
		if c.Err != nil {
			printWarn("", fmt.Sprintf("Corrupted image! %s (%v)", c.Path, c.Err))
			continue
		}
		printWarn("", "Corrupted image! "+c.Path)
	}
}

func (s *shell) list() {
	v := s.view
	printSection(fmt.Sprintf("View #%d (%s, depth %d)", v.ID(), v.Origin(), v.Depth()))
	if v.Empty() {
		printMiss("", "no images")
	}
	printPaths(v.Images())
	for _, sk := range v.Skipped() {
		printSkip("", fmt.Sprintf("%s: %v", sk.Path, sk.Err))
	}
}

func (s *shell) clusters() {
	printClusters(s.view)
}

// printClusters prints every cluster of v with its members.
func printClusters(v *repo.View) {
	ix := v.Clusters()
	if ix == nil {
		printMiss("", "no clusters: the view has no images")
		return
	}
	m := v.Matrix()
	for c := 0; c < ix.K(); c++ {
		members := ix.Members(c)
		printBullet(fmt.Sprintf("Cluster %d (%d image(s))", c, len(members)))
		paths := make([]string, 0, len(members))
		for _, i := range members {
			paths = append(paths, m.ID(i))
		}
		printPaths(paths)
	}
}

func printUsage() {
	fmt.Fprintln(stdout, `Type "search text" to search the current view by file name`)
	fmt.Fprintln(stdout, `Type "search images" to search the current view for similar images`)
	fmt.Fprintln(stdout, `Type "return" to get back to the previous search result`)
	fmt.Fprintln(stdout, `Type "return home" to get back to the original image repository`)
	fmt.Fprintln(stdout, `Type "check for corruption" to check whether any image in the current view has been modified`)
	fmt.Fprintln(stdout, `Type "list", "clusters", "help" or "quit" to inspect the view or leave`)
}
