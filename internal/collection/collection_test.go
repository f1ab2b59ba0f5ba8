package collection

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/mkbrechtel/patterns/internal/logger"
)

func page(title, body string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte("---\ntitle: " + title + "\n---\n" + body)}
}

func TestCollectionLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"docs/index.md":              page("Cute Patterns!", "Welcome"),
		"docs/deployment/docker.md":  page("Docker", "# Docker\n"),
		"docs/deployment/notes.txt":  {Data: []byte("not a page")},
		"docs/deployment/draft.mdx":  {Data: []byte("---\n---\n")},
		"docs/guides/deep/nested.md": page("Nested", "deep"),
	}

	docs, err := New(fsys, "", "", logger.Nop()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	wantIDs := []string{"deployment/docker", "guides/deep/nested", "index"}
	if len(docs) != len(wantIDs) {
		t.Fatalf("Load() returned %d documents, want %d", len(docs), len(wantIDs))
	}
	for i, id := range wantIDs {
		if docs[i].ID != id {
			t.Errorf("docs[%d].ID = %q, want %q", i, docs[i].ID, id)
		}
	}

	docker := docs[0]
	if docker.Path != "docs/deployment/docker.md" {
		t.Errorf("Path = %q, want docs/deployment/docker.md", docker.Path)
	}
	if docker.FrontMatter.Title != "Docker" {
		t.Errorf("Title = %q, want Docker", docker.FrontMatter.Title)
	}
	if docker.FrontMatter.Template != TemplateDoc {
		t.Errorf("Template = %q, want default %q", docker.FrontMatter.Template, TemplateDoc)
	}
	if strings.Contains(string(docker.Body), "title:") {
		t.Errorf("Body still contains frontmatter: %q", docker.Body)
	}
}

func TestCollectionLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{
			name: "missing base",
			fsys: fstest.MapFS{"other/a.md": page("A", "")},
		},
		{
			name: "missing title",
			fsys: fstest.MapFS{"docs/a/b.md": {Data: []byte("---\ndescription: no title\n---\nbody")}},
		},
		{
			name: "no frontmatter",
			fsys: fstest.MapFS{"docs/a/b.md": {Data: []byte("# Just markdown")}},
		},
		{
			name: "malformed yaml",
			fsys: fstest.MapFS{"docs/a/b.md": {Data: []byte("---\ntitle: [unclosed\n---\nbody")}},
		},
		{
			name: "unknown template",
			fsys: fstest.MapFS{"docs/a/b.md": {Data: []byte("---\ntitle: T\ntemplate: landing\n---\n")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.fsys, "docs", "", logger.Nop()).Load(context.Background())
			if err == nil {
				t.Fatal("Load() should return error")
			}
		})
	}
}

func TestCollectionLoadMissingBase(t *testing.T) {
	_, err := New(fstest.MapFS{}, "docs", "", nil).Load(context.Background())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load() error = %v, want fs.ErrNotExist", err)
	}
}

func TestCollectionLoadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fsys := fstest.MapFS{"docs/a/b.md": page("B", "")}
	_, err := New(fsys, "docs", "", nil).Load(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestParseFrontMatter(t *testing.T) {
	src := []byte(`---
title: Docker
description: Running the stack in containers
draft: true
template: splash
editUrl: https://github.com/mkbrechtel/patterns/edit/main/docs/deployment/docker.md
tags: [deploy, containers]
sidebar:
  label: Docker Compose
  order: 2
owner: ops
---
# Body
`)
	fm, body, err := ParseFrontMatter(src)
	if err != nil {
		t.Fatalf("ParseFrontMatter() error = %v", err)
	}
	if fm.Title != "Docker" || !fm.Draft || fm.Template != TemplateSplash {
		t.Errorf("unexpected frontmatter: %+v", fm)
	}
	if fm.Sidebar.Label != "Docker Compose" || fm.Sidebar.Order == nil || *fm.Sidebar.Order != 2 {
		t.Errorf("unexpected sidebar meta: %+v", fm.Sidebar)
	}
	if len(fm.Tags) != 2 {
		t.Errorf("Tags = %v, want 2 tags", fm.Tags)
	}
	if fm.Extra["owner"] != "ops" {
		t.Errorf("Extra[owner] = %v, want ops", fm.Extra["owner"])
	}
	if strings.TrimSpace(string(body)) != "# Body" {
		t.Errorf("body = %q, want # Body", body)
	}
}

func TestFrontMatterValidate(t *testing.T) {
	negative := -1
	tests := []struct {
		name    string
		fm      FrontMatter
		wantErr bool
	}{
		{name: "title only", fm: FrontMatter{Title: "T"}},
		{name: "empty title", fm: FrontMatter{}, wantErr: true},
		{name: "long title", fm: FrontMatter{Title: strings.Repeat("x", 201)}, wantErr: true},
		{name: "bad edit url", fm: FrontMatter{Title: "T", EditURL: "not a url"}, wantErr: true},
		{name: "negative order", fm: FrontMatter{Title: "T", Sidebar: SidebarMeta{Order: &negative}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fm.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
