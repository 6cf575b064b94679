package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDiff(t *testing.T) {
	diff := `diff --git a/app/models.py b/app/models.py
index 83db48f..bf269f4 100644
--- a/app/models.py
+++ b/app/models.py
@@ -12 +12 @@ class Product:
-        return 10
+        return 12
@@ -20,0 +21,3 @@ def helper():
+    if price < 0:
+        raise ValueError(price)
+    return price
diff --git a/main.py b/main.py
index 1111111..2222222 100644
--- a/main.py
+++ b/main.py
@@ -5,2 +0,0 @@ def run():
-    x = 1
-    y = 2
`

	changes, err := parseDiff([]byte(diff))
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, "app/models.py", changes[0].Path)
	assert.Equal(t, []int{12, 21, 22, 23}, changes[0].ChangedLines)

	assert.Equal(t, "main.py", changes[1].Path)
	assert.Empty(t, changes[1].ChangedLines, "pure deletions leave no lines on the new side")
}

func TestParseDiff_Empty(t *testing.T) {
	changes, err := parseDiff(nil)
	require.NoError(t, err)
	assert.Empty(t, changes)
}
