package app

// Flow selectors, mutually exclusive, highest priority first: a staged
// external action preempts everything, then the unlock flow while encrypted
// and locked, then the terms flow, then the selected view.
const (
	FlowExternalReceive = "external-receive"
	FlowUnlock          = "unlock"
	FlowTerms           = "terms"
	FlowView            = "view"
)

// ExternalReceive carries the parameters of the staged receive action.
type ExternalReceive struct {
	Webcash string `json:"webcash"`
	Memo    string `json:"memo"`
}

// Render tells the presentation layer which single flow to show.
type Render struct {
	Flow    string           `json:"flow"`
	View    string           `json:"view,omitempty"`
	Receive *ExternalReceive `json:"receive,omitempty"`
}

// RenderState resolves the rendering priority. First match wins.
func (o *Orchestrator) RenderState() Render {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.external != nil && o.external.Name == CommandReceive {
		return Render{
			Flow: FlowExternalReceive,
			Receive: &ExternalReceive{
				Webcash: o.external.Webcash.Serialize(),
				Memo:    o.external.Memo,
			},
		}
	}
	if o.conf.Encrypted && o.wallet == nil {
		return Render{Flow: FlowUnlock}
	}
	if !o.conf.TermsAccepted {
		return Render{Flow: FlowTerms}
	}
	return Render{Flow: FlowView, View: o.view}
}
