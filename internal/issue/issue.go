// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"errors"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

const (
	ProjectLayoutId Id = iota + 1
	RuntimeDependencyMissingId
	TypeCheckFailedId
	TypeCheckerNotFoundId
	BundleFailedId
	RepositoryContractId
	ModuleContractId
	DuplicateModuleIdId
	OutputWriteFailedId
	ConfigLoadFailedId
	SiteRenderFailedId
	BuildInProgressId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	// Issue is a catalog entry with Markdown guidance for one failure class.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}

	// Identified is implemented by errors that map onto a catalog entry.
	Identified interface {
		IssueID() Id
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render returns the terminal rendering of the guidance. stylePath is a
// glamour style name or file; an empty value selects the auto style.
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
		for _, link := range i.extLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var render = func(in, stylePath string) (string, error) {
	if stylePath == "" {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
		if err != nil {
			return "", err
		}
		return r.Render(in)
	}
	return glamour.Render(in, stylePath)
}

var (
	projectLayoutIssue = &Issue{
		id: ProjectLayoutId,
		mdMsg: `
# This does not look like a mochi repository

A repository keeps its modules under ` + "`src/`" + `, one directory per module,
each with an ` + "`index.ts`" + ` entry. The repository descriptor lives at
` + "`src/index.ts`" + `.

## Things you can try
- Run the command from the repository root, or pass the root as an argument
- Create a module with:
~~~
$ mochi init module "My Module"
~~~`,
	}

	runtimeDependencyMissingIssue = &Issue{
		id: RuntimeDependencyMissingId,
		mdMsg: `
# @mochi/js is not installed

The build stamps every module with the version of the ` + "`@mochi/js`" + `
runtime it was compiled against. The version is read from
` + "`node_modules/@mochi/js/package.json`" + `.

## Things you can try
~~~
$ npm install @mochi/js
~~~`,
		extLinks: []HttpLink{"https://www.npmjs.com/package/@mochi/js"},
	}

	typeCheckFailedIssue = &Issue{
		id: TypeCheckFailedId,
		mdMsg: `
# This project has type errors

Nothing was written to the output directory. Every error listed above must
be fixed before bundling.

## Things you can try
- Fix the reported locations, then run ` + "`mochi check`" + ` again
- Run ` + "`mochi serve`" + ` while iterating; the dev server skips type checking`,
	}

	typeCheckerNotFoundIssue = &Issue{
		id: TypeCheckerNotFoundId,
		mdMsg: `
# The TypeScript compiler could not be started

The type checker runs ` + "`tsc`" + ` from ` + "`node_modules/.bin`" + ` or from your PATH.

## Things you can try
~~~
$ npm install --save-dev typescript
~~~
- Or set ` + "`typecheck.command`" + ` in ` + "`mochi.cue`" + `
- Or pass ` + "`--no-check`" + ` to skip type checking`,
	}

	bundleFailedIssue = &Issue{
		id: BundleFailedId,
		mdMsg: `
# Bundling failed

At least one entry point could not be compiled, so no unit was produced.
The locations above come from the bundler.

## Common causes
- An import that cannot be resolved
- Syntax the configured target does not support`,
	}

	repositoryContractIssue = &Issue{
		id: RepositoryContractId,
		mdMsg: `
# The repository descriptor has no default export

` + "`src/index.ts`" + ` must export the repository metadata as its default export:

~~~ts
export default {
  name: "My Repository",
  description: "Modules for mochi",
};
~~~`,
	}

	moduleContractIssue = &Issue{
		id: ModuleContractId,
		mdMsg: `
# A module does not expose its metadata

Each module entry must default-export a class whose instances carry a
` + "`metadata`" + ` object with at least a ` + "`name`" + `.

~~~ts
export default class MyModule extends Source {
  metadata = { name: "My Module", version: "0.1.0" };
}
~~~

The module id is the declared `+"`id`"+` when it is a string, otherwise it is
derived from `+"`name`"+`. A name made only of symbols derives no id; declare
one explicitly.`,
	}

	duplicateModuleIdIssue = &Issue{
		id: DuplicateModuleIdId,
		mdMsg: `
# Two modules resolve to the same id

Module ids are derived from the module name in kebab-case unless the module
declares one. Ids must be unique across the repository.

## Things you can try
- Rename one of the modules
- Declare an explicit ` + "`id`" + ` in its metadata`,
	}

	outputWriteFailedIssue = &Issue{
		id: OutputWriteFailedId,
		mdMsg: `
# The build output could not be written

The pipeline finished but the output directory could not be updated.

## Things you can try
- Check permissions of the output directory
- Make sure no other process holds files in it open`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load mochi.cue

The project configuration is optional, but when present it must be valid CUE
matching the configuration schema.

## Things you can try
~~~
$ mochi config show
~~~`,
	}

	siteRenderFailedIssue = &Issue{
		id: SiteRenderFailedId,
		mdMsg: `
# The repository site could not be rendered

The manifest and modules were written. Only ` + "`index.html`" + ` is missing.`,
	}

	buildInProgressIssue = &Issue{
		id: BuildInProgressId,
		mdMsg: `
# Another build is writing to this output directory

Only one build may target an output directory at a time. Wait for it to
finish or choose a different output directory.`,
	}

	issues = []*Issue{
		projectLayoutIssue,
		runtimeDependencyMissingIssue,
		typeCheckFailedIssue,
		typeCheckerNotFoundIssue,
		bundleFailedIssue,
		repositoryContractIssue,
		moduleContractIssue,
		duplicateModuleIdIssue,
		outputWriteFailedIssue,
		configLoadFailedIssue,
		siteRenderFailedIssue,
		buildInProgressIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	out := slices.Clone(issues)
	slices.SortFunc(out, func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
	return out
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	idx := slices.IndexFunc(issues, func(i *Issue) bool { return i.id == id })
	if idx < 0 {
		return nil
	}
	return issues[idx]
}

// Lookup returns the catalog entry for the first error in err's chain that
// implements Identified.
func Lookup(err error) *Issue {
	var ident Identified
	if !errors.As(err, &ident) {
		return nil
	}
	return Get(ident.IssueID())
}
