package xmldsig

import (
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/rezonia/fiscal-br/internal/signature"
)

// Namespace of XMLDSig elements
const Namespace = "http://www.w3.org/2000/09/xmldsig#"

// Extraction locates the signed infNFe and the Signature that references it
type Extraction struct {
	Document  *etree.Document
	Signed    *etree.Element
	Signature *etree.Element
	// ID is the Id attribute of infNFe, e.g. "NFe3524..."
	ID string
	// SignedAt is ide/dhEmi (or ide/dEmi), nil when absent
	SignedAt *time.Time
}

// Extractor finds NF-e signature elements
type Extractor struct{}

// NewExtractor creates an extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses data and locates infNFe and its Signature. A document whose
// infNFe is unsigned yields the extraction with a nil Signature and
// signature.ErrNoSignature.
func (e *Extractor) Extract(data []byte) (*Extraction, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, signature.ErrMalformed("document", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, signature.ErrMalformed("document", fmt.Errorf("empty XML document"))
	}

	signed := findElement(root, "infNFe")
	if signed == nil {
		return nil, signature.ErrMalformed("infNFe", fmt.Errorf("infNFe element not found"))
	}

	ex := &Extraction{
		Document: doc,
		Signed:   signed,
		ID:       signed.SelectAttrValue("Id", ""),
		SignedAt: emissionTime(signed),
	}

	ex.Signature = findSignatureFor(root, ex.ID)
	if ex.Signature == nil {
		return ex, signature.ErrNoSignature()
	}
	return ex, nil
}

// findSignatureFor returns the Signature whose Reference URI is "#"+id
func findSignatureFor(root *etree.Element, id string) *etree.Element {
	var found *etree.Element
	walk(root, func(el *etree.Element) bool {
		if el.Tag != "Signature" || !inNamespace(el, Namespace) {
			return true
		}
		for _, ref := range childPath(el, "SignedInfo", "Reference") {
			if uri := ref.SelectAttrValue("URI", ""); uri == "" || strings.TrimPrefix(uri, "#") == id {
				found = el
				return false
			}
		}
		return true
	})
	return found
}

// CertificateData returns the base64 X509Certificate of a Signature
func CertificateData(sig *etree.Element) (string, error) {
	for _, el := range childPath(sig, "KeyInfo", "X509Data", "X509Certificate") {
		if text := strings.Join(strings.Fields(el.Text()), ""); text != "" {
			return text, nil
		}
	}
	return "", signature.ErrMalformed("KeyInfo", fmt.Errorf("no X509Certificate found in Signature"))
}

func emissionTime(infNFe *etree.Element) *time.Time {
	for _, el := range childPath(infNFe, "ide", "dhEmi") {
		if t, err := time.Parse(time.RFC3339, strings.TrimSpace(el.Text())); err == nil {
			return &t
		}
	}
	for _, el := range childPath(infNFe, "ide", "dEmi") {
		if t, err := time.Parse("2006-01-02", strings.TrimSpace(el.Text())); err == nil {
			return &t
		}
	}
	return nil
}

// detach copies the signed element together with the namespace declarations
// in scope at the signature's level, and re-attaches the Signature inside it
// so the enveloped-signature transform can be applied to a single subtree.
// NF-e places Signature next to infNFe rather than inside it.
func detach(signed, sig *etree.Element) *etree.Element {
	el := signed.Copy()

	declared := make(map[string]bool)
	for _, a := range el.Attr {
		if isNamespaceDecl(a) {
			declared[a.FullKey()] = true
		}
	}
	stop := sig.Parent()
	for p := signed.Parent(); p != nil; p = p.Parent() {
		for _, a := range p.Attr {
			if isNamespaceDecl(a) && !declared[a.FullKey()] {
				el.CreateAttr(a.FullKey(), a.Value)
				declared[a.FullKey()] = true
			}
		}
		if p == stop {
			break
		}
	}

	if !isDescendant(sig, signed) {
		el.AddChild(sig.Copy())
	}
	return el
}

func isNamespaceDecl(a etree.Attr) bool {
	return a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns")
}

func isDescendant(el, ancestor *etree.Element) bool {
	for p := el.Parent(); p != nil; p = p.Parent() {
		if p == ancestor {
			return true
		}
	}
	return false
}

func inNamespace(el *etree.Element, ns string) bool {
	return el.NamespaceURI() == ns
}

// walk visits el and its descendants depth-first until fn returns false
func walk(el *etree.Element, fn func(*etree.Element) bool) bool {
	if !fn(el) {
		return false
	}
	for _, child := range el.ChildElements() {
		if !walk(child, fn) {
			return false
		}
	}
	return true
}

func findElement(root *etree.Element, tag string) *etree.Element {
	var found *etree.Element
	walk(root, func(el *etree.Element) bool {
		if el.Tag == tag {
			found = el
			return false
		}
		return true
	})
	return found
}

// childPath follows child elements by local name, ignoring prefixes
func childPath(el *etree.Element, tags ...string) []*etree.Element {
	current := []*etree.Element{el}
	for _, tag := range tags {
		var next []*etree.Element
		for _, c := range current {
			for _, child := range c.ChildElements() {
				if child.Tag == tag {
					next = append(next, child)
				}
			}
		}
		current = next
	}
	return current
}
