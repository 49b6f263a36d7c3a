package browser

import (
	"encoding/json"
	"fmt"
)

// seatSnapshotScript returns {markup, markers} for the richest seat layout
// element in the document and in any same-origin iframe.
const seatSnapshotScript = `() => {
  const selectors = ["svg#svg-seatmap", ".seatmap svg#svg-seatmap"];
  const status = /available|occupied|wheelchair/i;
  const docs = [document];
  for (const frame of document.querySelectorAll("iframe")) {
    try { if (frame.contentDocument) docs.push(frame.contentDocument); } catch (e) {}
  }
  let best = { markup: "", markers: 0 };
  for (const doc of docs) {
    for (const selector of selectors) {
      const el = doc.querySelector(selector);
      if (!el) continue;
      let markers = 0;
      el.querySelectorAll("g[aria-description]").forEach((g) => {
        if (status.test(g.getAttribute("aria-description") || "")) markers++;
      });
      if (!best.markup || markers > best.markers) best = { markup: el.outerHTML, markers: markers };
    }
  }
  return best;
}`

// showtimeAnchorsScript lists showtime buttons with their data-* attributes.
const showtimeAnchorsScript = `() => Array.from(document.querySelectorAll("a.btn.btn-primary.btn-lg[data-url]")).map((a) => ({
  label: (a.innerText || a.textContent || "").trim(),
  url: a.getAttribute("data-url") || "",
  attrs: Object.fromEntries(Array.from(a.attributes)
    .filter((x) => x.name.startsWith("data-") && x.name !== "data-url")
    .map((x) => [x.name, x.value])),
}))`

// clickByTextScript clicks the first visible button or link whose text
// contains one of the labels and reports whether it found one.
func clickByTextScript(labels []string) string {
	encoded, _ := json.Marshal(labels)
	return fmt.Sprintf(`(() => {
  const labels = %s;
  for (const el of document.querySelectorAll("button, a, [role=button]")) {
    const text = (el.innerText || "").trim();
    if (el.offsetParent !== null && labels.some((l) => text.includes(l))) { el.click(); return true; }
  }
  return false;
})()`, encoded)
}

// invoke turns a function literal into an expression for engines that only evaluate expressions.
func invoke(fn string) string {
	return "(" + fn + ")()"
}
