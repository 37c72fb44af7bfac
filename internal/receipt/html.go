package receipt

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

var receiptTmpl = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <style>
    body {
      font-family: 'Courier New', Courier, monospace;
      font-size: 12px;
      width: 100%;
      margin: 0;
      padding: 5px;
    }
    .center { text-align: center; }
    .bold { font-weight: bold; }
    .divider { border-top: 1px dashed #000; margin: 5px 0; }
    .item { display: flex; justify-content: space-between; margin-bottom: 2px; }
    .total { display: flex; justify-content: space-between; margin-top: 5px; font-size: 14px; font-weight: bold; }
    .obs { font-style: italic; margin-top: 5px; font-size: 10px; }
    .qr { margin-top: 8px; }
    @media print {
      @page { margin: 0; }
      body { margin: 1cm; }
    }
  </style>
</head>
<body>
  <div class="center bold" style="font-size: 16px;">{{.RestaurantName}}</div>
  <div class="center">{{.DateTime}}</div>
  <div class="divider"></div>

  <div class="center bold" style="font-size: 14px;">MESA {{.TableLabel}}</div>
  <div class="center">Pedido #{{.OrderID}}</div>
  <div class="divider"></div>

  <div class="bold">ITENS:</div>
  {{range .Items}}<div class="item">
    <span>{{.Label}}</span>
    <span>{{.Amount}}</span>
  </div>
  {{end}}
  <div class="divider"></div>
  <div class="total">
    <span>TOTAL</span>
    <span>{{.Total}}</span>
  </div>
  {{if .Note}}
  <div class="divider"></div>
  <div class="obs">
    <span class="bold">OBS:</span> {{.Note}}
  </div>
  {{end}}
  {{if .QRDataURI}}
  <div class="center qr">
    <img src="{{.QRDataURI}}" width="96" height="96" alt="">
  </div>
  {{end}}
  <div class="divider"></div>
  <div class="center" style="margin-top: 10px; font-size: 10px;">
    {{.CourtesyLine}}<br>
    {{.SystemLine}}
  </div>

  <script>
    window.onload = function() {
      window.focus();
      window.print();
    };
  </script>
</body>
</html>
`))

type renderData struct {
	Document
	QRDataURI template.URL
}

// RenderHTML produces the self-contained printable page for a document: the
// receipt layout, print CSS and the auto-invoking print trigger. A QR code
// referencing the order is embedded so customers can pull the order up.
func RenderHTML(doc Document) (string, error) {
	data := renderData{Document: doc}

	if doc.OrderID != "" {
		png, err := qrcode.Encode(fmt.Sprintf("pedeai://pedido/%s", doc.OrderID), qrcode.Medium, 96)
		if err == nil {
			data.QRDataURI = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
		}
		// A QR encode failure only drops the QR block, never the receipt.
	}

	var b strings.Builder
	if err := receiptTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render receipt: %w", err)
	}
	return b.String(), nil
}
