package gateways

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/reachstrap/internal/classfile"
	"github.com/ochairo/reachstrap/internal/domain/entities"
)

func blockGameClass(t *testing.T) *classfile.ClassFile {
	t.Helper()
	cf, err := classfile.NewClass("finalforeach/cosmicreach/BlockGame", "java/lang/Object")
	require.NoError(t, err)
	require.NoError(t, cf.AddMethod(classfile.AccPublic, "render", "()V",
		&classfile.Code{Instructions: []classfile.Instruction{{Op: classfile.OpReturn}}}))
	return cf
}

func TestOverlayJarPipeline_LoadAndDefine(t *testing.T) {
	root := t.TempDir()
	gameJar := filepath.Join(root, "game.jar")
	original := blockGameClass(t)
	writeJar(t, gameJar, map[string]string{
		"finalforeach/cosmicreach/BlockGame.class": string(original.Bytes()),
	})

	p := NewOverlayJarPipeline(gameJar, filepath.Join(root, ".reachstrap"), nil)
	assert.Empty(t, p.Classpath(), "no overlay before any define")

	ctx := context.Background()
	cf, err := p.LoadClass(ctx, "finalforeach/cosmicreach/BlockGame")
	require.NoError(t, err)
	assert.Equal(t, original.Bytes(), cf.Bytes())

	_, err = p.LoadClass(ctx, "finalforeach/cosmicreach/Missing")
	assert.Error(t, err)

	require.NoError(t, p.Define(ctx, entities.DefaultRenderPatch.Selector, cf))
	assert.Equal(t, []string{filepath.Join(root, ".reachstrap", OverlayJarName)}, p.Classpath())

	data, err := ReadEntry(p.Path(), "finalforeach/cosmicreach/BlockGame.class")
	require.NoError(t, err)
	assert.Equal(t, cf.Bytes(), data)

	registry, err := ReadPatchRegistry(p.Path())
	require.NoError(t, err)
	assert.Equal(t, gameJar, registry.GameJar)
	require.Len(t, registry.Patches, 1)
	assert.Equal(t, "finalforeach/cosmicreach/BlockGame", registry.Patches[0].Class)
	assert.Equal(t, "render", registry.Patches[0].Method)
	assert.Equal(t, "()V", registry.Patches[0].Descriptor)
	assert.Len(t, registry.Patches[0].SHA256, 64)

	leftovers, err := filepath.Glob(filepath.Join(root, ".reachstrap", OverlayJarName+".*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "temporary files are cleaned up")
}

func TestOverlayJarPipeline_DefineRejectsForeignClass(t *testing.T) {
	root := t.TempDir()
	p := NewOverlayJarPipeline(filepath.Join(root, "game.jar"), root, nil)

	other := entities.MethodSelector{Owner: "com/example/Other", Name: "render", Descriptor: "()V"}
	err := p.Define(context.Background(), other, blockGameClass(t))
	assert.Error(t, err)

	_, statErr := os.Stat(p.Path())
	assert.True(t, os.IsNotExist(statErr))
}
