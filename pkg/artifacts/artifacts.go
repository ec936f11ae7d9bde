// Package artifacts locates and reads the files a signing build leaves
// under artifacts/: signing round projects and asset manifests.
package artifacts

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/beevik/etree"

	"github.com/glorpus-work/repoharness/pkg/errors"
)

// AssetManifestDir is the directory component that marks asset manifests.
const AssetManifestDir = "AssetManifest"

// SigningRoundPath returns artifacts/tmp/<configuration>/Signing/Round<n>-Sign.proj under root.
func SigningRoundPath(root, configuration string, round int) string {
	return filepath.Join(root, "artifacts", "tmp", configuration, "Signing", fmt.Sprintf("Round%d-Sign.proj", round))
}

// AuthenticodeCertificates returns the text of every <Authenticode> element
// in the signing round project at path, in document order.
func AuthenticodeCertificates(path string) ([]string, error) {
	doc, err := readXML(path)
	if err != nil {
		return nil, err
	}
	var certs []string
	for _, el := range doc.FindElements("//Authenticode") {
		certs = append(certs, strings.TrimSpace(el.Text()))
	}
	return certs, nil
}

// FindAssetManifests returns every *.xml file under artifacts/log whose path
// contains an AssetManifest directory, sorted.
func FindAssetManifests(root string) ([]string, error) {
	logDir := filepath.Join(root, "artifacts", "log")
	var found []string
	err := filepath.WalkDir(logDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".xml") {
			return nil
		}
		rel, err := filepath.Rel(logDir, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/")
		for _, p := range parts {
			if p == AssetManifestDir {
				found = append(found, path)
				break
			}
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "failed to search %s", logDir)
	}
	sort.Strings(found)
	return found, nil
}

// AssetManifest is the parsed root of an asset manifest.
type AssetManifest struct {
	Path       string
	Attributes map[string]string
	Packages   []Asset
	Blobs      []Asset
}

// Asset is one <Package> or <Blob> entry.
type Asset struct {
	ID         string
	Attributes map[string]string
}

// ReadAssetManifest parses the asset manifest at path.
func ReadAssetManifest(path string) (*AssetManifest, error) {
	doc, err := readXML(path)
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.Wrapf(errors.ErrArtifactParse, "%s has no root element", path)
	}
	m := &AssetManifest{Path: path, Attributes: attrs(root)}
	for _, el := range root.SelectElements("Package") {
		m.Packages = append(m.Packages, Asset{ID: el.SelectAttrValue("Id", ""), Attributes: attrs(el)})
	}
	for _, el := range root.SelectElements("Blob") {
		m.Blobs = append(m.Blobs, Asset{ID: el.SelectAttrValue("Id", ""), Attributes: attrs(el)})
	}
	return m, nil
}

// SingleAssetManifest returns the only asset manifest under root and fails
// when there is none or more than one.
func SingleAssetManifest(root string) (*AssetManifest, error) {
	paths, err := FindAssetManifests(root)
	if err != nil {
		return nil, err
	}
	if len(paths) != 1 {
		return nil, errors.Wrapf(errors.ErrExpectation, "expected exactly one asset manifest, found %d", len(paths))
	}
	return ReadAssetManifest(paths[0])
}

func readXML(path string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, errors.Wrapf(errors.ErrArtifactParse, "%s: %v", path, err)
	}
	return doc, nil
}

func attrs(el *etree.Element) map[string]string {
	out := make(map[string]string, len(el.Attr))
	for _, a := range el.Attr {
		out[a.Key] = a.Value
	}
	return out
}
